package strand

// Metrics receives observability events from a selector. Implementations
// must be safe for concurrent use; the sweep callbacks run on whatever
// goroutine flushes the selector's effect.
//
// The prom subpackage provides a Prometheus-backed implementation.
type Metrics interface {
	// Sweep reports a completed notification sweep: the number of
	// registered keys it visited and how many were notified.
	Sweep(keys, notified int)

	// SweepSkipped reports a source update whose value was unchanged, so
	// the notification sweep was suppressed entirely.
	SweepSkipped()

	// KeyAdded reports a new key registered by a query, with the registry
	// size after insertion.
	KeyAdded(total int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing. It is
// the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Sweep(keys, notified int) {}
func (NoopMetrics) SweepSkipped()            {}
func (NoopMetrics) KeyAdded(total int)       {}

var _ Metrics = NoopMetrics{}
