package strand

import (
	"sync"
	"sync/atomic"
)

// Effect is a reactive side effect that re-runs when its dependencies
// change. Dependencies are tracked automatically: every signal read during a
// run subscribes the effect, and the set is rebuilt from scratch on each run
// so stale subscriptions don't linger.
type Effect struct {
	id uint64

	// fn is the effect body.
	fn func() Cleanup

	// cleanup is the cleanup function from the last run.
	cleanup Cleanup

	// sources are the signals this effect currently depends on.
	sources   []*signalBase
	sourcesMu sync.Mutex

	// owner is the scope that owns this effect.
	owner *Owner

	// pending indicates the effect is scheduled for re-run.
	pending atomic.Bool

	// disposed indicates the effect has been disposed.
	disposed atomic.Bool
}

// MarkDirty schedules the effect to re-run. Implements Listener.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	// CAS so a dirty effect is only scheduled once per flush.
	if e.pending.CompareAndSwap(false, true) {
		if e.owner != nil {
			e.owner.scheduleEffect(e)
		}
	}
}

// ID returns the unique identifier for this effect. Implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// run executes the effect body, re-tracking dependencies.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	// Drop old subscriptions; the run below rebuilds them.
	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()

	oldListener := setCurrentListener(e)
	e.cleanup = e.fn()
	setCurrentListener(oldListener)
}

// addSource records a dependency. Called by signals read during a run.
func (e *Effect) addSource(source *signalBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

// dispose runs the pending cleanup and unsubscribes from all sources.
// A disposed effect never runs again.
func (e *Effect) dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = nil
	e.sourcesMu.Unlock()
}

// CreateEffect creates an effect within the current owner scope and runs it
// synchronously once. Thereafter it re-runs whenever any signal it read
// during the previous run changes. A returned Cleanup runs before each
// re-run and on disposal.
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return nil
//	})
func CreateEffect(fn func() Cleanup) *Effect {
	owner := getCurrentOwner()

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: owner,
	}

	if owner != nil {
		owner.registerEffect(e)
	}

	e.run()

	return e
}

// CreateValuedEffect creates an effect whose body receives its own previous
// return value: nil on the first run, then a pointer to whatever the last
// run returned. This gives one-shot initialization and steady-state diffing
// without an explicit state machine; the selector's change-detection sweep
// is built on it.
func CreateValuedEffect[R any](fn func(prev *R) R) *Effect {
	var prev *R
	return CreateEffect(func() Cleanup {
		next := fn(prev)
		prev = &next
		return nil
	})
}
