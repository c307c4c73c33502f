package strand

import (
	"github.com/strand-ui/strand/pkg/rwcell"
)

// SelectorOption configures a selector created by CreateSelector or
// CreateSelectorWithFn.
type SelectorOption interface {
	isSelectorOption()
	applySelector(c *selectorConfig)
}

type selectorConfig struct {
	metrics Metrics
	tracing *sweepTracer
}

type selectorOptionFunc func(*selectorConfig)

func (f selectorOptionFunc) isSelectorOption()               {}
func (f selectorOptionFunc) applySelector(c *selectorConfig) { f(c) }

// WithMetrics routes the selector's observability events to m.
func WithMetrics(m Metrics) SelectorOption {
	return selectorOptionFunc(func(c *selectorConfig) {
		if m != nil {
			c.metrics = m
		}
	})
}

// latest is the cached most recent source value. valid is false only before
// the selector's effect has run for the first time, which cannot be observed
// through the public constructors: they run the effect synchronously.
type latest[V any] struct {
	value V
	valid bool
}

// selectorState holds one selector instance: the lazily grown registry of
// per-key notification signals and the cached latest source value, both
// shared between the query closure and the effect through the rwcell
// capability only.
type selectorState[K comparable, V comparable] struct {
	cfg selectorConfig

	// f is the caller-supplied relation. It must be pure; it runs once
	// per registered key on every source transition.
	f func(K, V) bool

	// subs maps each key ever queried to its notification signal.
	// Entries are never replaced or removed.
	subs rwcell.Cell[map[K]*Signal[bool]]

	// latest caches the most recent source value for read-time
	// evaluation.
	latest rwcell.Cell[latest[V]]
}

// CreateSelector creates a conditional query over source that only notifies
// a dependent when a change in the source's value changes whether it equals
// the dependent's key.
//
// You probably don't need this, but it is a useful optimization when many
// observers each watch for their own value ("set the class `selected` if
// selected() == thisRowIndex"): it reduces the per-update notification cost
// from O(observers) to O(1) amortized per observer.
//
//	selected := NewSignal(0)
//	isSelected := CreateSelector(selected.Get)
//
//	CreateEffect(func() Cleanup {
//	    if isSelected(5) {
//	        // runs again only when 5 is selected or deselected
//	    }
//	    return nil
//	})
func CreateSelector[T comparable](source func() T, opts ...SelectorOption) func(T) bool {
	return CreateSelectorWithFn(source, func(key, value T) bool { return key == value }, opts...)
}

// CreateSelectorWithFn is the general form of CreateSelector: f decides
// whether a key matches the current source value.
//
// A key is notified on a source transition when it matches the new value or
// matched the old one — both directions of a selection flip. Relations that
// are not equality-like (several keys matching at once) still work but may
// over-notify: a key matching both the old and new value is notified even
// though its answer did not flip.
//
// The returned query function is safe to share and call from any reactive
// context. Each distinct key lazily creates one notification signal that
// lives for the lifetime of the selector; unbounded key cardinality
// therefore grows the registry without bound.
func CreateSelectorWithFn[K comparable, V comparable](source func() V, f func(K, V) bool, opts ...SelectorOption) func(K) bool {
	s := newSelectorState(source, f, opts...)
	return s.isSelected
}

// newSelectorState builds the shared state and registers the selector's
// effect, which runs synchronously before this returns.
func newSelectorState[K comparable, V comparable](source func() V, f func(K, V) bool, opts ...SelectorOption) *selectorState[K, V] {
	cfg := selectorConfig{metrics: NoopMetrics{}}
	for _, opt := range opts {
		opt.applySelector(&cfg)
	}

	s := &selectorState[K, V]{
		cfg:    cfg,
		f:      f,
		subs:   rwcell.New(make(map[K]*Signal[bool])),
		latest: rwcell.New(latest[V]{}),
	}

	CreateValuedEffect(s.sweep(source))

	return s
}

// sweep returns the effect body: read the source (tracked), commit the
// latest value, and when the value actually changed, notify every
// registered key whose relation holds for the new value or held for the
// previous one.
func (s *selectorState[K, V]) sweep(source func() V) func(prev *V) V {
	return func(prev *V) V {
		next := source()

		s.latest.Write(func(lv *latest[V]) {
			lv.value = next
			lv.valid = true
		})

		// Unchanged value: suppress the sweep entirely. This gate is the
		// O(1)-when-idle guarantee.
		if prev != nil && *prev == next {
			s.cfg.metrics.SweepSkipped()
			return next
		}

		// Snapshot the registry so no lock is held while notifying:
		// dependents may re-enter the selector from their own effects.
		var snapshot map[K]*Signal[bool]
		s.subs.Read(func(m map[K]*Signal[bool]) {
			snapshot = make(map[K]*Signal[bool], len(m))
			for key, sig := range m {
				snapshot[key] = sig
			}
		})

		span := s.cfg.tracing.start(prev == nil)

		notified := 0
		for key, sig := range snapshot {
			if s.f(key, next) || (prev != nil && s.f(key, *prev)) {
				// The stored boolean is a trigger, not truth: the write
				// is always true and always notifies (see keySignal).
				sig.Set(true)
				notified++
			}
		}

		s.cfg.metrics.Sweep(len(snapshot), notified)
		span.end(len(snapshot), notified)

		return next
	}
}

// isSelected is the query function handed to callers.
func (s *selectorState[K, V]) isSelected(key K) bool {
	// Get-or-insert must be atomic under one write acquisition so
	// concurrent first queries for the same key cannot create two signals.
	var sig *Signal[bool]
	created := false
	total := 0
	s.subs.Write(func(m *map[K]*Signal[bool]) {
		if existing, ok := (*m)[key]; ok {
			sig = existing
			return
		}
		sig = keySignal()
		(*m)[key] = sig
		created = true
		total = len(*m)
	})
	if created {
		s.cfg.metrics.KeyAdded(total)
	}

	// Zero-effect tracked read: the value is discarded, the read exists
	// only to register the calling reactive context as a dependent.
	_ = sig.Get()

	// The answer is always recomputed live from the cached source value,
	// never taken from the per-key signal.
	selected := false
	s.latest.Read(func(lv latest[V]) {
		if !lv.valid {
			panic("strand: selector queried before its effect's first run")
		}
		selected = s.f(key, lv.value)
	})
	return selected
}

// keySignal creates a per-key notification signal. The never-equal equality
// function makes every Set(true) reach dependents even when the stored
// boolean is already true; its value carries no meaning.
func keySignal() *Signal[bool] {
	return NewSignal(false).WithEquals(func(bool, bool) bool { return false })
}
