package state

import "sync"

// Field is a single value guarded by its own lock. The zero value holds the
// zero T and is ready to use.
type Field[T any] struct {
	mu sync.RWMutex
	v  T
}

// Get returns the current value.
func (f *Field[T]) Get() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.v
}

// Set replaces the current value.
func (f *Field[T]) Set(v T) {
	f.mu.Lock()
	f.v = v
	f.mu.Unlock()
}

// Update replaces the value with fn(old) and returns the new value.
// fn runs with the lock held and must not block.
func (f *Field[T]) Update(fn func(T) T) T {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.v = fn(f.v)
	return f.v
}
