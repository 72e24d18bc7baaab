// Package future provides a single-resolution asynchronous result and a
// group for waiting on several of them.
//
// A [Future] settles exactly once, either resolved with a value or rejected
// with an error. Later attempts to settle it are ignored:
//
//	f := future.New[int]()
//	go func() { f.Resolve(42) }()
//	v, err := f.Get() // blocks until settled
//
// A [Group] collects futures and joins their errors:
//
//	var g future.Group[int]
//	g.Add(f1)
//	g.Add(f2)
//	err := g.Wait()
package future
