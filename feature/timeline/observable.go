package timeline

import (
	"context"
	"sync"
)

// Value is a versioned, read-only observable. Readers poll with Load or block
// on Wait until the version moves past the one they last saw.
type Value[T any] struct {
	mu      sync.Mutex
	v       T
	version uint64
	changed chan struct{}
}

// NewValue returns a Value holding v at version zero.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v, changed: make(chan struct{})}
}

// Load returns the current value and its version.
func (o *Value[T]) Load() (T, uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v, o.version
}

// Store replaces the value and wakes all waiters. It returns the new version.
func (o *Value[T]) Store(v T) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	o.version++
	close(o.changed)
	o.changed = make(chan struct{})
	return o.version
}

// Wait blocks until the version is greater than after or ctx is done.
func (o *Value[T]) Wait(ctx context.Context, after uint64) (T, uint64, error) {
	for {
		o.mu.Lock()
		v, version, ch := o.v, o.version, o.changed
		o.mu.Unlock()
		if version > after {
			return v, version, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return v, version, ctx.Err()
		}
	}
}
