package observability

import (
	"context"
	"time"
)

// NoopMetricsProvider discards every metric.
type NoopMetricsProvider struct{}

func (NoopMetricsProvider) Counter(context.Context, string, int64, map[string]string)     {}
func (NoopMetricsProvider) Gauge(context.Context, string, float64, map[string]string)     {}
func (NoopMetricsProvider) Histogram(context.Context, string, float64, map[string]string) {}
func (NoopMetricsProvider) RecordDuration(context.Context, string, time.Duration, map[string]string) {
}

// NoopTracerProvider starts spans that record nothing.
type NoopTracerProvider struct{}

// StartSpan returns ctx unchanged and a no-op span
func (NoopTracerProvider) StartSpan(ctx context.Context, _ string, _ ...SpanOption) (context.Context, Span) {
	return ctx, noopSpan{}
}

// Shutdown does nothing
func (NoopTracerProvider) Shutdown(context.Context) error {
	return nil
}

type noopSpan struct{}

func (noopSpan) End(error)                       {}
func (noopSpan) SetAttribute(string, any)        {}
func (noopSpan) AddEvent(string, map[string]any) {}
func (noopSpan) SetStatus(SpanStatus, string)    {}
func (noopSpan) SpanContext() SpanContext        { return SpanContext{} }
