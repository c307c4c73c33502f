// Package strand is a fine-grained reactive state core.
//
// Dependencies are tracked automatically at runtime: reading a signal during
// a tracked context (an effect run, or any code wrapped in WithListener)
// subscribes the current listener to that signal's changes.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Effect runs side effects when dependencies change:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// # Selectors
//
// CreateSelector converts an O(observers) fan-out per source update into
// O(1) amortized per observer: many independent observers each ask "is the
// source currently equal to my key?" and are notified only when the answer
// to their own question flips.
//
//	selected := NewSignal(0)
//	isSelected := CreateSelector(selected.Get)
//
//	// Inside each row's effect:
//	if isSelected(rowIndex) { ... }
//
// # Batching
//
// Multiple signal updates can be batched into a single notification phase:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Thread Safety
//
// All reactive primitives are safe for concurrent use by default. Shared
// state inside the core goes through the rwcell capability, whose backend is
// chosen at build time: builds tagged strand_st get a single-owner cell with
// zero synchronization cost for single-threaded targets.
package strand
