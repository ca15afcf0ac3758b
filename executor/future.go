package executor

import (
	"context"
	"sync"
)

// Future is the eventual result of a task.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Ready returns a future that is already resolved.
func Ready[T any](val T, err error) *Future[T] {
	f := newFuture[T]()
	f.complete(val, err)
	return f
}

// complete resolves the future. Only the first call has an effect.
func (f *Future[T]) complete(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Poll reports the result without blocking. ready is false while the task
// is still running.
func (f *Future[T]) Poll() (val T, ready bool, err error) {
	select {
	case <-f.done:
		return f.val, true, f.err
	default:
		var zero T
		return zero, false, nil
	}
}

// Await blocks until the future resolves or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
