// Package observability defines the metrics and tracing surface used by the
// mock vector database, with Prometheus and OTLP backends for live runs and
// in-memory backends for tests.
package observability

import (
	"context"
	"maps"
	"time"
)

// MetricsProvider records counters, gauges and histograms.
//
// A metric name must always be recorded with the same label keys; the
// Prometheus backend fixes the label schema on first use.
type MetricsProvider interface {
	Counter(ctx context.Context, name string, value int64, labels map[string]string)

	// Gauge adds value to the gauge; negative values decrease it.
	Gauge(ctx context.Context, name string, value float64, labels map[string]string)

	Histogram(ctx context.Context, name string, value float64, labels map[string]string)

	// RecordDuration observes d in seconds.
	RecordDuration(ctx context.Context, name string, d time.Duration, labels map[string]string)
}

// TracerProvider starts spans.
//
//	ctx, span := tracer.StartSpan(ctx, "vectordb.search",
//	    observability.WithSpanKind(observability.SpanKindClient))
//	defer span.End(err)
type TracerProvider interface {
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)

	// Shutdown flushes buffered spans.
	Shutdown(ctx context.Context) error
}

// Span is one traced operation. End must be called exactly once; a non-nil
// error marks the span failed unless SetStatus was called first.
type Span interface {
	End(err error)
	SetAttribute(key string, value any)
	AddEvent(name string, attrs map[string]any)
	SetStatus(code SpanStatus, description string)
	SpanContext() SpanContext
}

// SpanContext holds the identifiers of a span in their string form.
type SpanContext struct {
	TraceID string
	SpanID  string
}

type SpanStatus int

const (
	SpanStatusUnset SpanStatus = iota
	SpanStatusOK
	SpanStatusError
)

type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient // outbound call, e.g. a search against the engine
)

// SpanOption configures StartSpan.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       SpanKind
	attributes map[string]any
}

func newSpanConfig(opts []SpanOption) *spanConfig {
	cfg := &spanConfig{attributes: map[string]any{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithSpanKind(kind SpanKind) SpanOption {
	return func(cfg *spanConfig) { cfg.kind = kind }
}

// WithAttributes adds start attributes. Repeated options merge, later keys win.
func WithAttributes(attrs map[string]any) SpanOption {
	return func(cfg *spanConfig) { maps.Copy(cfg.attributes, attrs) }
}
