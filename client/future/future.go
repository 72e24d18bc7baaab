package future

import (
	"context"
	"errors"
	"sync"
)

// ErrNilFuture is returned by a nil *Future.
var ErrNilFuture = errors.New("nil future")

// Future represents an in-flight or settled asynchronous result.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New returns an unsettled Future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future already resolved with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a Future already rejected with err.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Go runs fn in a new goroutine and settles the returned Future with its result.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := New[T]()

	go func() {
		v, err := fn(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()

	return f
}

// Resolve settles the Future with v. It reports false if it was already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the Future with err. It reports false if it was already settled.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val = v
		f.err = err
		close(f.done)
		settled = true
	})

	return settled
}

// Done returns a channel that is closed once the Future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get blocks until the Future settles and returns its outcome.
func (f *Future[T]) Get() (T, error) {
	if f == nil {
		var zero T
		return zero, ErrNilFuture
	}

	<-f.done
	return f.val, f.err
}

// Await is like Get but gives up when ctx ends. The Future itself keeps
// running and may still settle later.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if f == nil {
		return zero, ErrNilFuture
	}

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Err blocks until the Future settles and returns its error.
func (f *Future[T]) Err() error {
	_, err := f.Get()
	return err
}
