// Package prom exports selector metrics to Prometheus.
//
// The adapter implements strand.Metrics; hand it to a selector with
// strand.WithMetrics:
//
//	adapter := prom.New(prom.WithNamespace("myapp"))
//	isSelected := strand.CreateSelector(source.Get, strand.WithMetrics(adapter))
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/strand-ui/strand/pkg/strand"
)

// Config configures the Prometheus adapter.
type Config struct {
	// Namespace is the metrics namespace (default: "strand").
	Namespace string

	// Subsystem is the metrics subsystem (default: "selector").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to register with.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the Prometheus adapter.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "strand",
		Subsystem: "selector",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Adapter implements strand.Metrics on top of Prometheus collectors.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
//
// Metrics exported (with the default namespace/subsystem):
//   - strand_selector_sweeps_total{result}: notification sweeps by outcome
//     ("ran" or "skipped")
//   - strand_selector_notifications_total: per-key notifications delivered
//   - strand_selector_registry_keys: registered keys in the selector
type Adapter struct {
	sweeps   *prometheus.CounterVec
	notified prometheus.Counter
	keys     prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
func New(opts ...Option) *Adapter {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(config.Registry)

	return &Adapter{
		sweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sweeps_total",
			Help:        "Notification sweeps by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		notified: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Per-key notifications delivered by sweeps",
			ConstLabels: config.ConstLabels,
		}),

		keys: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "registry_keys",
			Help:        "Keys registered in the selector",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Sweep records a completed notification sweep.
func (a *Adapter) Sweep(keys, notified int) {
	a.sweeps.WithLabelValues("ran").Inc()
	a.notified.Add(float64(notified))
	a.keys.Set(float64(keys))
}

// SweepSkipped records a sweep suppressed by the unchanged-value gate.
func (a *Adapter) SweepSkipped() {
	a.sweeps.WithLabelValues("skipped").Inc()
}

// KeyAdded records registry growth.
func (a *Adapter) KeyAdded(total int) {
	a.keys.Set(float64(total))
}

var _ strand.Metrics = (*Adapter)(nil)
