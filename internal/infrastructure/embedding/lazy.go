package embedding

import "sync"

// Lazy holds a process-wide resource that is built once, on first use, and is
// read-only afterwards. A failed initialization is not retried.
type Lazy[T any] struct {
	once  sync.Once
	init  func() (T, error)
	value T
	err   error
}

// NewLazy creates a lazily initialized resource
func NewLazy[T any](init func() (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the resource, initializing it on the first call
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		l.value, l.err = l.init()
	})
	return l.value, l.err
}
