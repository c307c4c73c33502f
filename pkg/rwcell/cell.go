// Package rwcell provides a capability interface for shared mutable state
// with two interchangeable backends: a single-owner cell with no
// synchronization cost, and a reader/writer mutex cell for concurrent use.
//
// The rest of the reactive core is written once against Cell; which backend
// it gets is an environment decision made at build time (see New). The two
// backends are functionally equivalent and differ only in their concurrency
// guarantees.
package rwcell

// Cell guards a single value with reader/writer access semantics.
//
// Access is scoped: the value is only reachable inside the callback passed
// to Read or Write, and the acquisition is released on every exit path,
// including a panic inside the callback. Go locks do not poison; if a
// callback panics mid-write the lock is released and the panic propagates
// to the caller, so the failure surfaces rather than silently corrupting
// state.
//
// Callbacks must not re-acquire the same cell: the single-owner backend
// treats a conflicting reentrant acquisition as a programming error and
// fails fast, and the concurrent backend would self-deadlock.
type Cell[T any] interface {
	// Read runs fn with shared access to the current value.
	Read(fn func(v T))

	// Write runs fn with exclusive access to the value. Mutations through
	// the pointer are visible to subsequent acquisitions.
	Write(fn func(v *T))

	// TryRead is a non-blocking Read. It reports whether access was
	// acquired; fn does not run when it returns false.
	TryRead(fn func(v T)) bool

	// TryWrite is a non-blocking Write with the same contract as TryRead.
	TryWrite(fn func(v *T)) bool

	// Take swaps the held value for the zero value and returns the old
	// one, under a single write acquisition.
	Take() T
}
