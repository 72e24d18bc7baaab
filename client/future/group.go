package future

import (
	"errors"
	"sync"
)

// Group tracks a batch of futures. The zero value is ready to use.
// Add must not be called concurrently with Wait.
type Group[T any] struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	futures []*Future[T]
	errs    []error
}

// Add registers f with the group.
func (g *Group[T]) Add(f *Future[T]) {
	g.mu.Lock()
	g.futures = append(g.futures, f)
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		if err := f.Err(); err != nil {
			g.recordErr(err)
		}
	}()
}

// Futures returns the registered futures in the order they were added.
func (g *Group[T]) Futures() []*Future[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Future[T], len(g.futures))
	copy(out, g.futures)

	return out
}

// Wait blocks until every future in the group settles.
// Returns all errors joined via errors.Join.
func (g *Group[T]) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()

	return errors.Join(g.errs...)
}

// recordErr appends err to the group's error slice under the mutex.
func (g *Group[T]) recordErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs = append(g.errs, err)
}
