//go:build !strand_st

package rwcell

// New creates a cell with the default backend for the build target.
//
// The default is the concurrent backend. Builds with the strand_st tag get
// the single-owner backend instead, trading thread safety for zero
// synchronization cost in single-threaded execution environments. Callers
// never branch on the backend; the choice is invisible behind Cell.
func New[T any](initial T) Cell[T] {
	return NewSync(initial)
}
