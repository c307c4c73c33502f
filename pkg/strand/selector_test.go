package strand

import (
	"sync"
	"testing"

	"github.com/strand-ui/strand/pkg/rwcell"
)

// Test hooks into selector internals.

func (s *selectorState[K, V]) signalFor(key K) *Signal[bool] {
	var sig *Signal[bool]
	s.subs.Read(func(m map[K]*Signal[bool]) { sig = m[key] })
	return sig
}

func (s *selectorState[K, V]) keyCount() int {
	n := 0
	s.subs.Read(func(m map[K]*Signal[bool]) { n = len(m) })
	return n
}

// recordingMetrics counts selector observability events for assertions.
type recordingMetrics struct {
	mu        sync.Mutex
	sweeps    int
	skipped   int
	notified  int
	keysAdded int
	lastTotal int
}

func (m *recordingMetrics) Sweep(keys, notified int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	m.notified += notified
}

func (m *recordingMetrics) SweepSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped++
}

func (m *recordingMetrics) KeyAdded(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keysAdded++
	m.lastTotal = total
}

func (m *recordingMetrics) snapshot() (sweeps, skipped, notified, keysAdded int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweeps, m.skipped, m.notified, m.keysAdded
}

func newTestSelector[K comparable, V comparable](t *testing.T, source func() V, f func(K, V) bool, opts ...SelectorOption) (*Owner, *selectorState[K, V]) {
	t.Helper()
	owner := NewOwner(nil)
	t.Cleanup(owner.Dispose)

	var s *selectorState[K, V]
	WithOwner(owner, func() {
		s = newSelectorState(source, f, opts...)
	})
	return owner, s
}

func eq(key, value int) bool { return key == value }

func TestSelectorConcreteScenario(t *testing.T) {
	source := NewSignal(0)
	owner, s := newTestSelector(t, source.Get, eq)
	isSelected := s.isSelected

	// Register dependents for keys 4 and 5.
	l4 := newTestListener()
	l5 := newTestListener()
	WithListener(l5, func() {
		if isSelected(5) {
			t.Error("expected is_selected(5) == false at source 0")
		}
	})
	WithListener(l4, func() {
		_ = isSelected(4)
	})

	source.Set(5)
	owner.RunPendingEffects()

	if !isSelected(5) {
		t.Error("expected is_selected(5) == true after source = 5")
	}
	if l5.getDirtyCount() != 1 {
		t.Errorf("key 5 should be notified exactly once, got %d", l5.getDirtyCount())
	}
	if l4.getDirtyCount() != 0 {
		t.Errorf("key 4 should not be notified on 0 -> 5, got %d", l4.getDirtyCount())
	}

	// Unchanged write: no notification anywhere.
	source.Set(5)
	owner.RunPendingEffects()

	if !isSelected(5) {
		t.Error("expected is_selected(5) == true after repeated source = 5")
	}
	if l5.getDirtyCount() != 1 {
		t.Errorf("unchanged value must not notify, got %d", l5.getDirtyCount())
	}

	source.Set(4)
	owner.RunPendingEffects()

	if isSelected(5) {
		t.Error("expected is_selected(5) == false after source = 4")
	}
	if !isSelected(4) {
		t.Error("expected is_selected(4) == true after source = 4")
	}
	if l5.getDirtyCount() != 2 {
		t.Errorf("key 5 should be notified on deselection, got %d", l5.getDirtyCount())
	}
	if l4.getDirtyCount() != 1 {
		t.Errorf("key 4 should be notified on selection, got %d", l4.getDirtyCount())
	}
}

func TestSelectorEffectDependents(t *testing.T) {
	// The public-API version of the scenario: an effect queries the
	// selector and re-runs exactly when its key's selection flips.
	owner := NewOwner(nil)
	defer owner.Dispose()

	source := NewSignal(0)
	totalNotifications := 0

	WithOwner(owner, func() {
		isSelected := CreateSelector(source.Get)
		CreateEffect(func() Cleanup {
			if isSelected(5) {
				totalNotifications++
			}
			return nil
		})
	})

	if totalNotifications != 0 {
		t.Errorf("expected 0 notifications at source 0, got %d", totalNotifications)
	}

	source.Set(5)
	owner.RunPendingEffects()
	if totalNotifications != 1 {
		t.Errorf("expected 1 notification after source = 5, got %d", totalNotifications)
	}

	source.Set(5)
	owner.RunPendingEffects()
	if totalNotifications != 1 {
		t.Errorf("unchanged value should not re-run the dependent, got %d", totalNotifications)
	}

	source.Set(3)
	owner.RunPendingEffects()
	if totalNotifications != 1 {
		t.Errorf("deselection re-runs the dependent but the branch is false, got %d", totalNotifications)
	}

	source.Set(5)
	owner.RunPendingEffects()
	if totalNotifications != 2 {
		t.Errorf("expected 2 notifications after reselection, got %d", totalNotifications)
	}
}

func TestSelectorNoSpuriousSweep(t *testing.T) {
	// A never-equal source signal forces the effect to re-run on every
	// write, exercising the selector's own change gate.
	source := NewSignal(1).WithEquals(func(int, int) bool { return false })
	metrics := &recordingMetrics{}
	owner, s := newTestSelector(t, source.Get, eq, WithMetrics(metrics))

	l1 := newTestListener()
	WithListener(l1, func() { _ = s.isSelected(1) })

	source.Set(1)
	owner.RunPendingEffects()
	source.Set(1)
	owner.RunPendingEffects()

	sweeps, skipped, notified, _ := metrics.snapshot()
	if skipped != 2 {
		t.Errorf("expected 2 suppressed sweeps for unchanged values, got %d", skipped)
	}
	if sweeps != 1 {
		t.Errorf("expected only the first-run sweep, got %d", sweeps)
	}
	if notified != 0 {
		t.Errorf("expected 0 notifications, got %d", notified)
	}
	if l1.getDirtyCount() != 0 {
		t.Errorf("dependent must not be notified on unchanged values, got %d", l1.getDirtyCount())
	}
}

func TestSelectorOverNotifiesNonExclusiveRelation(t *testing.T) {
	// Relation "source >= key" is not equality-like: key 3 matches both 5
	// and 7, its answer does not flip on 5 -> 7, yet it is still notified.
	// That over-notification is the documented contract, not a bug.
	source := NewSignal(5)
	owner, s := newTestSelector(t, source.Get, func(key, value int) bool { return value >= key })

	l3 := newTestListener()
	WithListener(l3, func() {
		if !s.isSelected(3) {
			t.Error("expected 5 >= 3")
		}
	})

	source.Set(7)
	owner.RunPendingEffects()

	if !s.isSelected(3) {
		t.Error("expected 7 >= 3")
	}
	if l3.getDirtyCount() != 1 {
		t.Errorf("key matching both old and new value is still notified, got %d", l3.getDirtyCount())
	}
}

func TestSelectorLazySignalCreation(t *testing.T) {
	source := NewSignal(0)
	metrics := &recordingMetrics{}
	_, s := newTestSelector(t, source.Get, eq, WithMetrics(metrics))

	if s.keyCount() != 0 {
		t.Errorf("registry should start empty, got %d keys", s.keyCount())
	}

	_ = s.isSelected(9)
	first := s.signalFor(9)
	if first == nil {
		t.Fatal("query should create the key's signal")
	}

	_ = s.isSelected(9)
	_ = s.isSelected(9)

	if s.keyCount() != 1 {
		t.Errorf("expected exactly 1 registry entry, got %d", s.keyCount())
	}
	if s.signalFor(9) != first {
		t.Error("repeated queries must reuse the same signal")
	}
	_, _, _, keysAdded := metrics.snapshot()
	if keysAdded != 1 {
		t.Errorf("expected 1 KeyAdded event, got %d", keysAdded)
	}
}

func TestSelectorLiveReevaluation(t *testing.T) {
	// The per-key signal's stored boolean is a notification trigger, not
	// truth: poking it out of band must not change query answers.
	source := NewSignal(0)
	_, s := newTestSelector(t, source.Get, eq)

	if s.isSelected(5) {
		t.Fatal("expected false at source 0")
	}

	s.signalFor(5).Set(true)

	if s.isSelected(5) {
		t.Error("out-of-band signal write must not affect the query answer")
	}
}

func TestSelectorFirstRunOrdering(t *testing.T) {
	// A query in the same synchronous turn as construction observes the
	// first effect run, never an absent value.
	source := NewSignal(7)
	_, s := newTestSelector(t, source.Get, eq)

	if !s.isSelected(7) {
		t.Error("query immediately after construction should see the first run")
	}
}

func TestSelectorQueryBeforeFirstRunPanics(t *testing.T) {
	// Bypass the constructor to break the first-run invariant; the query
	// must fail loudly, never return a stale or default answer.
	s := &selectorState[int, int]{
		cfg:    selectorConfig{metrics: NoopMetrics{}},
		f:      eq,
		subs:   rwcell.New(make(map[int]*Signal[bool])),
		latest: rwcell.New(latest[int]{}),
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic when querying before the first effect run")
		}
	}()
	_ = s.isSelected(1)
}

func TestSelectorDisposedScopeStops(t *testing.T) {
	source := NewSignal(0)
	owner, s := newTestSelector(t, source.Get, eq)

	l1 := newTestListener()
	WithListener(l1, func() { _ = s.isSelected(1) })

	owner.Dispose()

	source.Set(1)
	owner.RunPendingEffects()

	if l1.getDirtyCount() != 0 {
		t.Errorf("disposed selector must not notify, got %d", l1.getDirtyCount())
	}
}

func TestSelectorConcurrentQueries(t *testing.T) {
	const keys = 32
	const goroutines = 8
	const rounds = 200

	source := NewSignal(0)
	owner, s := newTestSelector(t, source.Get, eq)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for k := 0; k < keys; k++ {
					_ = s.isSelected(k)
				}
			}
		}()
	}

	// One update stream interleaved with the queriers.
	for v := 0; v < keys; v++ {
		source.Set(v)
		owner.RunPendingEffects()
	}

	wg.Wait()
	owner.RunPendingEffects()

	if s.keyCount() != keys {
		t.Errorf("expected exactly %d registry entries, got %d", keys, s.keyCount())
	}

	final := source.Peek()
	for k := 0; k < keys; k++ {
		if got := s.isSelected(k); got != (k == final) {
			t.Errorf("key %d: expected %v against final value %d, got %v", k, k == final, final, got)
		}
	}
}
