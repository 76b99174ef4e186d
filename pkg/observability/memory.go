package observability

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// series identifies one metric name plus label set.
type series string

func seriesOf(name string, labels map[string]string) series {
	var b strings.Builder
	b.WriteString(name)
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return series(b.String())
}

func (s series) name() string {
	name, _, _ := strings.Cut(string(s), "|")
	return name
}

// InMemoryMetricsProvider keeps every observation in maps so tests can assert
// on exact counts. Label order does not matter when reading back.
//
//	metrics := observability.NewInMemoryMetricsProvider()
//	engine, _ := vectordb.New(cfg, vectordb.WithMetrics(metrics))
//	...
//	evictions := metrics.GetCounter(vectordb.MetricCacheEvictions, nil)
type InMemoryMetricsProvider struct {
	mu           sync.RWMutex
	counters     map[series]int64
	gauges       map[series]float64
	observations map[series][]float64
}

// NewInMemoryMetricsProvider returns an empty provider.
func NewInMemoryMetricsProvider() *InMemoryMetricsProvider {
	p := &InMemoryMetricsProvider{}
	p.Reset()
	return p
}

func (p *InMemoryMetricsProvider) Counter(_ context.Context, name string, value int64, labels map[string]string) {
	s := seriesOf(name, labels)
	p.mu.Lock()
	p.counters[s] += value
	p.mu.Unlock()
}

func (p *InMemoryMetricsProvider) Gauge(_ context.Context, name string, value float64, labels map[string]string) {
	s := seriesOf(name, labels)
	p.mu.Lock()
	p.gauges[s] += value
	p.mu.Unlock()
}

func (p *InMemoryMetricsProvider) Histogram(_ context.Context, name string, value float64, labels map[string]string) {
	s := seriesOf(name, labels)
	p.mu.Lock()
	p.observations[s] = append(p.observations[s], value)
	p.mu.Unlock()
}

func (p *InMemoryMetricsProvider) RecordDuration(ctx context.Context, name string, d time.Duration, labels map[string]string) {
	p.Histogram(ctx, name, d.Seconds(), labels)
}

// GetCounter returns the counter for name with exactly these labels.
func (p *InMemoryMetricsProvider) GetCounter(name string, labels map[string]string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.counters[seriesOf(name, labels)]
}

// CounterTotal sums the counter for name across every label set.
func (p *InMemoryMetricsProvider) CounterTotal(name string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var total int64
	for s, v := range p.counters {
		if s.name() == name {
			total += v
		}
	}
	return total
}

// GetGauge returns the gauge for name with exactly these labels.
func (p *InMemoryMetricsProvider) GetGauge(name string, labels map[string]string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gauges[seriesOf(name, labels)]
}

// GetHistogram returns a copy of the observations in recording order.
func (p *InMemoryMetricsProvider) GetHistogram(name string, labels map[string]string) []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.observations[seriesOf(name, labels)])
}

// Reset drops every series.
func (p *InMemoryMetricsProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters = make(map[series]int64)
	p.gauges = make(map[series]float64)
	p.observations = make(map[series][]float64)
}

// RecordedSpan is a span captured by InMemoryTracerProvider once ended.
type RecordedSpan struct {
	Name       string
	Kind       SpanKind
	TraceID    string
	SpanID     string
	StartTime  time.Time
	EndTime    time.Time
	Attributes map[string]any
	Events     []RecordedEvent
	Status     SpanStatus
	StatusDesc string
	Error      error
}

// Duration is the wall time between start and end.
func (s *RecordedSpan) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// RecordedEvent is one AddEvent call.
type RecordedEvent struct {
	Name       string
	Time       time.Time
	Attributes map[string]any
}

// InMemoryTracerProvider collects ended spans in end order.
type InMemoryTracerProvider struct {
	mu    sync.RWMutex
	ended []*RecordedSpan
}

// NewInMemoryTracerProvider returns a provider with no spans.
func NewInMemoryTracerProvider() *InMemoryTracerProvider {
	return &InMemoryTracerProvider{}
}

func (p *InMemoryTracerProvider) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	cfg := newSpanConfig(opts)
	return ctx, &inMemorySpan{
		provider: p,
		rec: &RecordedSpan{
			Name:       name,
			Kind:       cfg.kind,
			TraceID:    uuid.NewString(),
			SpanID:     uuid.NewString(),
			StartTime:  time.Now(),
			Attributes: maps.Clone(cfg.attributes),
		},
	}
}

func (p *InMemoryTracerProvider) Shutdown(context.Context) error {
	return nil
}

// GetSpans returns every ended span.
func (p *InMemoryTracerProvider) GetSpans() []*RecordedSpan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.ended)
}

// GetSpansByName returns ended spans called name.
func (p *InMemoryTracerProvider) GetSpansByName(name string) []*RecordedSpan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*RecordedSpan
	for _, s := range p.ended {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Reset forgets every ended span.
func (p *InMemoryTracerProvider) Reset() {
	p.mu.Lock()
	p.ended = nil
	p.mu.Unlock()
}

// inMemorySpan must only be touched by the goroutine that started it.
type inMemorySpan struct {
	provider *InMemoryTracerProvider
	rec      *RecordedSpan
}

func (s *inMemorySpan) End(err error) {
	s.rec.EndTime = time.Now()
	s.rec.Error = err
	// an explicit SetStatus wins over the end error
	if err != nil && s.rec.Status == SpanStatusUnset {
		s.rec.Status, s.rec.StatusDesc = SpanStatusError, err.Error()
	}

	s.provider.mu.Lock()
	s.provider.ended = append(s.provider.ended, s.rec)
	s.provider.mu.Unlock()
}

func (s *inMemorySpan) SetAttribute(key string, value any) {
	s.rec.Attributes[key] = value
}

func (s *inMemorySpan) AddEvent(name string, attrs map[string]any) {
	s.rec.Events = append(s.rec.Events, RecordedEvent{Name: name, Time: time.Now(), Attributes: attrs})
}

func (s *inMemorySpan) SetStatus(code SpanStatus, description string) {
	s.rec.Status, s.rec.StatusDesc = code, description
}

func (s *inMemorySpan) SpanContext() SpanContext {
	return SpanContext{TraceID: s.rec.TraceID, SpanID: s.rec.SpanID}
}
