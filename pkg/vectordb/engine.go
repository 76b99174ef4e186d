// Package vectordb implements a simulated vector database for stress testing
// retrieval pipelines.
//
// The Engine serves similarity searches over a deterministic synthetic
// corpus. Each uncached search passes through a bounded admission
// controller, a parametric latency model and a failure injector before the
// cosine-similarity ranking runs, so pipelines can be exercised against
// contention, slow calls, timeouts and errors in a reproducible way.
//
// Two error channels are used on purpose. Resource exhaustion (no admission
// slot within the wait bound) and caller cancellation are returned as Go
// errors. Injected failures are domain outcomes and are reported in
// RetrievalResult.Error with a nil error.
//
// Example:
//
//	cfg := vectordb.DefaultConfig()
//	cfg.IndexSize = 500
//	engine, err := vectordb.New(cfg, vectordb.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	res, err := engine.Search(ctx, "retry budgets", 5, nil)
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/calque-ai/calque-stress/pkg/logger"
	"github.com/calque-ai/calque-stress/pkg/observability"
)

const (
	MetricSearchRequests = "vectordb_search_requests_total"
	MetricSearchDuration = "vectordb_search_duration_seconds"
	MetricCacheEvictions = "vectordb_cache_evictions_total"
	MetricInFlight       = "vectordb_admission_in_flight"
	MetricModeChanges    = "vectordb_failure_mode_changes_total"

	spanSearch = "vectordb.search"
)

// Outcome classifies how a search call ended.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeCacheHit         Outcome = "cache_hit"
	OutcomeInjectedError    Outcome = "injected_error"
	OutcomeInjectedTimeout  Outcome = "injected_timeout"
	OutcomeAdmissionTimeout Outcome = "admission_timeout"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeUnexpected       Outcome = "unexpected_error"
)

// Engine is the simulated vector database. It is safe for concurrent use;
// see ResponseCache for the ordering guarantees of concurrent misses.
type Engine struct {
	cfg Config

	clock   Clock
	log     *logger.Logger
	metrics observability.MetricsProvider
	tracer  observability.TracerProvider

	index     *SearchEngine
	admission *AdmissionController
	cache     *ResponseCache
	latency   *LatencyModel
	injector  *FailureInjector
	stats     *StatsCollector
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger; defaults to a discarding logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetrics sets the metrics provider; defaults to a no-op provider.
func WithMetrics(m observability.MetricsProvider) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer provider; defaults to a no-op provider.
func WithTracer(t observability.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithClock replaces the real clock, typically with a FakeClock in tests.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New validates cfg and builds an engine over a freshly generated corpus of
// cfg.IndexSize documents.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vectordb config: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		clock:   RealClock{},
		log:     logger.Nop(),
		metrics: observability.NoopMetricsProvider{},
		tracer:  observability.NoopTracerProvider{},
	}
	for _, opt := range opts {
		opt(e)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	e.index = NewSearchEngine(GenerateDocuments(cfg.IndexSize, e.clock.Now()))
	e.admission = NewAdmissionController(cfg.MaxConcurrentConnections, cfg.AcquireTimeout, e.clock)
	e.cache = NewResponseCache(cfg.CacheSize, cfg.CacheTTL, e.clock)
	e.cache.onEvict = e.onEvict
	e.latency = NewLatencyModel(rand.New(rand.NewPCG(seed, 1)))
	e.injector = NewFailureInjector(cfg.FailureMode, cfg.FailureRate, rand.New(rand.NewPCG(seed, 2)))
	e.stats = NewStatsCollector()

	e.log.Info(context.Background(), "vector database ready",
		logger.Attr("index_size", cfg.IndexSize),
		logger.Attr("max_connections", cfg.MaxConcurrentConnections),
		logger.Attr("cache_size", cfg.CacheSize),
		logger.Attr("failure_mode", cfg.FailureMode.String()),
		logger.Attr("failure_rate", cfg.FailureRate),
	)
	return e, nil
}

// Search returns up to topK documents most similar to query, restricted to
// documents accepted by filter (nil accepts all).
//
// It returns an error only when no admission slot is available within the
// configured wait bound (matching ErrAdmissionTimeout) or when ctx is done.
// Injected failures come back as a result with a non-empty Error.
func (e *Engine) Search(ctx context.Context, query string, topK int, filter Filter) (*RetrievalResult, error) {
	ctx = WithRequestID(ctx, uuid.NewString())
	ctx, span := e.tracer.StartSpan(ctx, spanSearch,
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithAttributes(map[string]any{
			"top_k":        topK,
			"query_length": len(query),
			"filtered":     filter != nil,
		}),
	)

	start := e.clock.Now()
	e.stats.RecordRequest()

	result, outcome, err := e.search(ctx, query, topK, filter, start)

	if err != nil || result.Failed() {
		e.stats.RecordFailure()
	}
	if err == nil && outcome != OutcomeUnexpected {
		e.stats.RecordLatency(result.LatencyMs)
	}

	labels := map[string]string{"outcome": string(outcome)}
	e.metrics.Counter(ctx, MetricSearchRequests, 1, labels)
	e.metrics.RecordDuration(ctx, MetricSearchDuration, e.clock.Now().Sub(start), labels)

	span.SetAttribute("outcome", string(outcome))
	if result != nil {
		span.SetAttribute("cache_hit", result.CacheHit)
		span.SetAttribute("documents", len(result.Documents))
		if result.Failed() {
			span.SetStatus(observability.SpanStatusError, result.Error)
		}
	}
	span.End(err)

	return result, err
}

func (e *Engine) search(ctx context.Context, query string, topK int, filter Filter, start time.Time) (*RetrievalResult, Outcome, error) {
	if topK < 0 {
		e.log.Error(ctx, "search rejected", logger.Attr("request_id", RequestID(ctx)), logger.Attr("top_k", topK))
		return &RetrievalResult{Error: fmt.Sprintf("top_k must not be negative, got %d", topK)}, OutcomeUnexpected, nil
	}

	key := CacheKey(query, topK)
	if entry, ok := e.cache.Get(key); ok {
		e.stats.RecordHit()
		res := entry.Result.clone()
		res.CacheHit = true
		res.LatencyMs = e.elapsedMs(start)
		return res, OutcomeCacheHit, nil
	}
	e.stats.RecordMiss()

	if err := e.admission.Acquire(ctx); err != nil {
		if errors.Is(err, ErrAdmissionTimeout) {
			e.stats.RecordWait()
			e.log.Warn(ctx, "admission timeout",
				logger.Attr("request_id", RequestID(ctx)),
				logger.Attr("capacity", e.admission.Capacity()),
				logger.Attr("timeout", e.cfg.AcquireTimeout.String()),
			)
			return nil, OutcomeAdmissionTimeout, err
		}
		return nil, OutcomeCancelled, e.aborted(ctx, err, "admission wait aborted", topK)
	}
	defer e.admission.Release()

	e.metrics.Gauge(ctx, MetricInFlight, 1, nil)
	defer e.metrics.Gauge(ctx, MetricInFlight, -1, nil)

	latency := e.latency.Compute(e.cfg.BaseLatency, e.cfg.LatencyVariance, e.cfg.IndexSize, e.cfg.EnableLatencyScaling)
	decision := e.injector.Decide(latency)

	if decision.Fail {
		outcome := OutcomeInjectedError
		if decision.Sleep {
			outcome = OutcomeInjectedTimeout
			if err := e.clock.Sleep(ctx, decision.Latency); err != nil {
				return nil, OutcomeCancelled, e.aborted(ctx, err, "simulated timeout interrupted", topK)
			}
		}
		e.log.Debug(ctx, "injected failure",
			logger.Attr("request_id", RequestID(ctx)),
			logger.Attr("outcome", string(outcome)),
		)
		return &RetrievalResult{Error: decision.Message, LatencyMs: e.elapsedMs(start)}, outcome, nil
	}

	if err := e.clock.Sleep(ctx, decision.Latency); err != nil {
		return nil, OutcomeCancelled, e.aborted(ctx, err, "search interrupted", topK)
	}

	docs, scores, err := e.rank(query, topK, filter)
	if err != nil {
		e.log.Error(ctx, "search failed", logger.Attr("request_id", RequestID(ctx)), logger.Attr("error", err))
		return &RetrievalResult{Error: err.Error()}, OutcomeUnexpected, nil
	}

	res := &RetrievalResult{
		Documents: docs,
		Scores:    scores,
		LatencyMs: e.elapsedMs(start),
	}
	e.cache.Put(key, res)
	return res, OutcomeOK, nil
}

// aborted wraps the caller's cancellation with the request context and logs it.
func (e *Engine) aborted(ctx context.Context, cause error, msg string, topK int) *Error {
	err := WrapErr(ctx, cause, msg).Tag(
		slog.Int("top_k", topK),
		slog.String("outcome", string(OutcomeCancelled)),
	)
	e.log.Warn(ctx, msg, logger.FromSlog(err.LogAttrs())...)
	return err
}

// rank runs the similarity search, converting a panicking filter into an error.
func (e *Engine) rank(query string, topK int, filter Filter) (docs []VectorDocument, scores []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("similarity search failed: %v", r)
		}
	}()
	docs, scores = e.index.Search(EmbedQuery(query), topK, filter)
	return docs, scores, nil
}

// SetFailureMode replaces the failure injector state. rate is clamped to [0, 1].
func (e *Engine) SetFailureMode(mode FailureMode, rate float64) {
	e.injector.Set(mode, rate)

	ctx := context.Background()
	e.metrics.Counter(ctx, MetricModeChanges, 1, map[string]string{"mode": mode.String()})
	e.log.Info(ctx, "failure mode changed",
		logger.Attr("mode", mode.String()),
		logger.Attr("rate", clampRate(rate)),
	)
}

// FailureMode returns the active failure mode and rate.
func (e *Engine) FailureMode() (FailureMode, float64) {
	return e.injector.Current()
}

// ClearCache drops every cached result.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	e.log.Debug(context.Background(), "cache cleared")
}

// GetStats returns the counters with freshly computed latency percentiles.
// The cost is O(n log n) in the number of recorded samples.
func (e *Engine) GetStats() Stats {
	st := e.stats.Snapshot()
	st.CacheEntries = e.cache.Len()
	st.InFlight = e.admission.InFlight()
	return st
}

// ResetStats zeroes counters and drops latency samples.
func (e *Engine) ResetStats() {
	e.stats.Reset()
}

// Documents returns the indexed documents in insertion order. The returned
// documents share metadata maps with the index and must not be modified.
func (e *Engine) Documents() []VectorDocument {
	return slices.Clone(e.index.docs)
}

// Config returns the construction config with the current failure state.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.FailureMode, cfg.FailureRate = e.injector.Current()
	return cfg
}

func (e *Engine) onEvict(key uint64) {
	e.metrics.Counter(context.Background(), MetricCacheEvictions, 1, nil)
	e.log.Debug(context.Background(), "cache entry evicted", logger.Attr("key", key))
}

func (e *Engine) elapsedMs(start time.Time) float64 {
	return float64(e.clock.Now().Sub(start)) / float64(time.Millisecond)
}
