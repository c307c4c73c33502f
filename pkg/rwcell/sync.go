package rwcell

import "sync"

// Sync is the concurrent Cell backend: true multi-reader/single-writer
// semantics backed by sync.RWMutex. Read and Write block until the lock is
// available; TryRead and TryWrite fail fast under contention.
type Sync[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewSync creates a concurrent cell holding initial.
func NewSync[T any](initial T) *Sync[T] {
	return &Sync[T]{v: initial}
}

// Read runs fn with shared access, blocking while a writer holds the cell.
func (c *Sync[T]) Read(fn func(v T)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.v)
}

// Write runs fn with exclusive access, blocking until all readers release.
func (c *Sync[T]) Write(fn func(v *T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.v)
}

// TryRead acquires shared access only if no writer holds the cell.
func (c *Sync[T]) TryRead(fn func(v T)) bool {
	if !c.mu.TryRLock() {
		return false
	}
	defer c.mu.RUnlock()
	fn(c.v)
	return true
}

// TryWrite acquires exclusive access only if the cell is uncontended.
func (c *Sync[T]) TryWrite(fn func(v *T)) bool {
	if !c.mu.TryLock() {
		return false
	}
	defer c.mu.Unlock()
	fn(&c.v)
	return true
}

// Take swaps the value for the zero value under one write acquisition.
func (c *Sync[T]) Take() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	old := c.v
	c.v = zero
	return old
}

var _ Cell[int] = (*Sync[int])(nil)
