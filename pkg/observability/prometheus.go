package observability

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultLatencyBuckets covers simulated search latencies from a
// millisecond up to the injected timeout range, in seconds.
var DefaultLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 1, 2.5, 5}

// PrometheusProvider implements MetricsProvider on its own registry.
// Vectors are registered on the first observation of each name, with the
// label keys of that observation.
type PrometheusProvider struct {
	registry *prometheus.Registry
	buckets  []float64
	runtime  bool

	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

type PrometheusOption func(*PrometheusProvider)

// WithDurationBuckets replaces DefaultLatencyBuckets for every histogram.
func WithDurationBuckets(buckets []float64) PrometheusOption {
	return func(p *PrometheusProvider) { p.buckets = buckets }
}

func WithPrometheusRegistry(registry *prometheus.Registry) PrometheusOption {
	return func(p *PrometheusProvider) { p.registry = registry }
}

// WithoutRuntimeCollectors leaves out the Go and process collectors.
func WithoutRuntimeCollectors() PrometheusOption {
	return func(p *PrometheusProvider) { p.runtime = false }
}

func NewPrometheusProvider(opts ...PrometheusOption) *PrometheusProvider {
	p := &PrometheusProvider{
		registry:   prometheus.NewRegistry(),
		buckets:    DefaultLatencyBuckets,
		runtime:    true,
		counters:   map[string]*prometheus.CounterVec{},
		gauges:     map[string]*prometheus.GaugeVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runtime {
		p.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return p
}

func (p *PrometheusProvider) Counter(_ context.Context, name string, value int64, labels map[string]string) {
	p.counterVec(name, labels).With(labels).Add(float64(value))
}

func (p *PrometheusProvider) Gauge(_ context.Context, name string, value float64, labels map[string]string) {
	p.gaugeVec(name, labels).With(labels).Add(value)
}

func (p *PrometheusProvider) Histogram(_ context.Context, name string, value float64, labels map[string]string) {
	p.histogramVec(name, labels).With(labels).Observe(value)
}

func (p *PrometheusProvider) RecordDuration(ctx context.Context, name string, d time.Duration, labels map[string]string) {
	p.Histogram(ctx, name, d.Seconds(), labels)
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusProvider) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusProvider) counterVec(name string, labels map[string]string) *prometheus.CounterVec {
	return lazyVec(&p.mu, p.counters, name, func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: "Counter for " + name}, labelKeys(labels))
	}, p.registry)
}

func (p *PrometheusProvider) gaugeVec(name string, labels map[string]string) *prometheus.GaugeVec {
	return lazyVec(&p.mu, p.gauges, name, func() *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: "Gauge for " + name}, labelKeys(labels))
	}, p.registry)
}

func (p *PrometheusProvider) histogramVec(name string, labels map[string]string) *prometheus.HistogramVec {
	return lazyVec(&p.mu, p.histograms, name, func() *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    "Histogram for " + name,
			Buckets: p.buckets,
		}, labelKeys(labels))
	}, p.registry)
}

// lazyVec returns vecs[name], building and registering it on first use.
func lazyVec[V prometheus.Collector](mu *sync.RWMutex, vecs map[string]V, name string, build func() V, reg prometheus.Registerer) V {
	mu.RLock()
	v, ok := vecs[name]
	mu.RUnlock()
	if ok {
		return v
	}

	mu.Lock()
	defer mu.Unlock()
	if v, ok = vecs[name]; ok {
		return v
	}
	v = build()
	reg.MustRegister(v)
	vecs[name] = v
	return v
}

func labelKeys(labels map[string]string) []string {
	return slices.Sorted(maps.Keys(labels))
}
