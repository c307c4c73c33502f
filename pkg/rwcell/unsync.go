package rwcell

// Unsync is the single-owner Cell backend. It performs no real mutual
// exclusion; it only tracks a borrow state so that a conflicting reentrant
// acquisition (write during a live read, or any access during a live write)
// is caught immediately as a programming error instead of corrupting state
// or deadlocking silently.
//
// Unsync is not safe for concurrent use. It exists for single-threaded
// execution environments where synchronization cost must be zero.
type Unsync[T any] struct {
	// borrows is > 0 while readers are live and -1 while a writer is live.
	borrows int
	v       T
}

// NewUnsync creates a single-owner cell holding initial.
func NewUnsync[T any](initial T) *Unsync[T] {
	return &Unsync[T]{v: initial}
}

// Read runs fn with shared access. Panics if a write is in progress.
func (c *Unsync[T]) Read(fn func(v T)) {
	if c.borrows < 0 {
		panic("rwcell: read while write access is held")
	}
	c.borrows++
	defer func() { c.borrows-- }()
	fn(c.v)
}

// Write runs fn with exclusive access. Panics if any access is in progress.
func (c *Unsync[T]) Write(fn func(v *T)) {
	if c.borrows != 0 {
		panic("rwcell: write while access is held")
	}
	c.borrows = -1
	defer func() { c.borrows = 0 }()
	fn(&c.v)
}

// TryRead reports a live write as contention instead of panicking.
func (c *Unsync[T]) TryRead(fn func(v T)) bool {
	if c.borrows < 0 {
		return false
	}
	c.borrows++
	defer func() { c.borrows-- }()
	fn(c.v)
	return true
}

// TryWrite reports any live access as contention instead of panicking.
func (c *Unsync[T]) TryWrite(fn func(v *T)) bool {
	if c.borrows != 0 {
		return false
	}
	c.borrows = -1
	defer func() { c.borrows = 0 }()
	fn(&c.v)
	return true
}

// Take swaps the value for the zero value under one write acquisition.
func (c *Unsync[T]) Take() T {
	var old T
	c.Write(func(v *T) {
		old = *v
		var zero T
		*v = zero
	})
	return old
}

var _ Cell[int] = (*Unsync[int])(nil)
