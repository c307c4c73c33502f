package strand

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WithTracing emits one OpenTelemetry span per notification sweep, carrying
// the registry size and the number of keys notified. The tracer is resolved
// from the global tracer provider; configure that in main() before creating
// selectors:
//
//	otel.SetTracerProvider(tp)
//	isSelected := strand.CreateSelector(source, strand.WithTracing("my-app"))
//
// Sweeps on unchanged values are suppressed before a span starts, so idle
// selectors emit nothing.
func WithTracing(name string) SelectorOption {
	return selectorOptionFunc(func(c *selectorConfig) {
		c.tracing = &sweepTracer{tracer: otel.Tracer(name)}
	})
}

// sweepTracer wraps each notification sweep in a span. A nil sweepTracer is
// valid and records nothing, so the sweep path stays branch-light.
type sweepTracer struct {
	tracer trace.Tracer
}

type sweepSpan struct {
	span trace.Span
}

func (t *sweepTracer) start(firstRun bool) sweepSpan {
	if t == nil {
		return sweepSpan{}
	}
	_, span := t.tracer.Start(
		context.Background(),
		"strand.selector.sweep",
		trace.WithAttributes(attribute.Bool("strand.first_run", firstRun)),
	)
	return sweepSpan{span: span}
}

func (s sweepSpan) end(keys, notified int) {
	if s.span == nil {
		return
	}
	s.span.SetAttributes(
		attribute.Int("strand.registry_keys", keys),
		attribute.Int("strand.keys_notified", notified),
	)
	s.span.End()
}
