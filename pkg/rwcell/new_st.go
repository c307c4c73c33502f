//go:build strand_st

package rwcell

// New creates a cell with the default backend for the build target.
//
// This build carries the strand_st tag: the target is single-threaded, so
// the single-owner backend is used and acquisitions cost nothing.
func New[T any](initial T) Cell[T] {
	return NewUnsync(initial)
}
