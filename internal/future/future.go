// Package future provides a single-assignment asynchronous result.
//
// A Future is either created already completed (Completed) or pending (New) and
// fulfilled later, exactly once, by whoever owns it (Complete).
package future

import (
	"context"
	"sync"
)

// Future holds a value that becomes available at most once.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

// New returns a pending future that completes when Complete is first called.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future that already holds v.
func Completed[T any](v T) *Future[T] {
	f := New[T]()
	f.Complete(v)
	return f
}

// Complete fulfills the future with v. It reports whether this call was the
// one that completed it; later calls are ignored.
func (f *Future[T]) Complete(v T) bool {
	completed := false
	f.once.Do(func() {
		f.value = v
		close(f.done)
		completed = true
	})
	return completed
}

// Done returns a channel closed once the value is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has been completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the future completes or ctx is done.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Value returns the completed value and true, or the zero value and false if
// the future is still pending.
func (f *Future[T]) Value() (T, bool) {
	if !f.IsDone() {
		var zero T
		return zero, false
	}
	return f.value, true
}
