package scenario

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/calque-ai/calque-stress/pkg/helpers"
	"github.com/calque-ai/calque-stress/pkg/logger"
	"github.com/calque-ai/calque-stress/pkg/observability"
	"github.com/calque-ai/calque-stress/pkg/retrieval"
	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

const (
	MetricRequests        = "scenario_requests_total"
	MetricRequestDuration = "scenario_request_duration_seconds"
	MetricBreakerChanges  = "scenario_breaker_state_changes_total"
)

// Runner executes profiles against one engine. A Runner runs one profile at
// a time; Run resets the engine stats and cache before starting.
type Runner struct {
	engine  *vectordb.Engine
	store   *retrieval.Store
	log     *logger.Logger
	metrics observability.MetricsProvider
	tracer  observability.TracerProvider
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger, also used by the underlying store.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m observability.MetricsProvider) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracer sets the tracer provider.
func WithTracer(t observability.TracerProvider) Option {
	return func(r *Runner) {
		r.tracer = t
	}
}

// NewRunner creates a runner issuing searches through a retrieval.Store over engine.
func NewRunner(engine *vectordb.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:  engine,
		log:     logger.Nop(),
		metrics: observability.NoopMetricsProvider{},
		tracer:  observability.NoopTracerProvider{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.store = retrieval.NewStore(engine, retrieval.WithLogger(r.log))
	return r
}

// Store returns the retrieval store the runner searches through.
func (r *Runner) Store() *retrieval.Store {
	return r.store
}

// Run dispatches p.Requests searches, at most p.Concurrency at a time and
// paced to p.Rate, switching failure phases as dispatch crosses them.
//
// Per-request failures are counted in the report, not returned. Run returns
// an error only for an invalid profile or when ctx ends before every request
// was dispatched; the partial report is returned alongside in that case.
func (r *Runner) Run(ctx context.Context, p Profile) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.StartSpan(ctx, "scenario.run", observability.WithAttributes(map[string]any{
		"profile":     p.Name,
		"requests":    p.Requests,
		"concurrency": p.Concurrency,
	}))

	r.engine.ResetStats()
	r.engine.ClearCache()

	var breaker *gobreaker.CircuitBreaker
	if p.Resilient {
		breaker = r.newBreaker(ctx, p)
	}

	limit := rate.Inf
	if p.Rate > 0 {
		limit = rate.Limit(p.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	report := &Report{Profile: p.Name, Outcomes: make(map[Outcome]int)}
	var mu sync.Mutex
	record := func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		report.Outcomes[o]++
	}

	r.log.Info(ctx, "scenario started",
		logger.Attr("profile", p.Name),
		logger.Attr("requests", p.Requests),
		logger.Attr("concurrency", p.Concurrency),
	)

	pool := queries(p.QueryPool)
	starts := p.phaseStarts()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Concurrency)

	var dispatchErr error
	for i := range p.Requests {
		if ph, ok := starts[i]; ok {
			r.engine.SetFailureMode(ph.Mode, ph.Rate)
		}
		if err := limiter.Wait(gctx); err != nil {
			dispatchErr = err
			break
		}
		if err := gctx.Err(); err != nil {
			dispatchErr = err
			break
		}

		query := retrieval.SearchQuery{Text: pool[i%len(pool)], Limit: p.TopK}
		report.Requests++
		g.Go(func() error {
			began := time.Now()
			o := r.execute(gctx, p, breaker, query)
			record(o)

			labels := map[string]string{"profile": p.Name, "outcome": string(o)}
			r.metrics.Counter(gctx, MetricRequests, 1, labels)
			r.metrics.RecordDuration(gctx, MetricRequestDuration, time.Since(began), labels)
			return nil
		})
	}
	_ = g.Wait()

	report.finish(time.Since(start), r.engine.GetStats())
	if breaker != nil {
		report.Breaker = breaker.State().String()
	}

	span.SetAttribute("succeeded", report.Succeeded())
	if dispatchErr != nil {
		err := helpers.WrapErrorf(dispatchErr, "scenario %s stopped after %d of %d requests", p.Name, report.Requests, p.Requests)
		span.End(err)
		r.log.Warn(ctx, "scenario interrupted", logger.Attr("profile", p.Name), logger.Attr("dispatched", report.Requests))
		return report, err
	}
	span.End(nil)

	r.log.Info(ctx, "scenario finished",
		logger.Attr("profile", p.Name),
		logger.Attr("duration", report.Duration.String()),
		logger.Attr("success_rate", report.SuccessRate()),
		logger.Attr("p99_ms", report.Stats.P99LatencyMs),
	)
	return report, nil
}

func (r *Runner) execute(ctx context.Context, p Profile, breaker *gobreaker.CircuitBreaker, query retrieval.SearchQuery) Outcome {
	if breaker == nil {
		return Classify(r.store.Search(ctx, query))
	}

	var res *retrieval.SearchResult
	op := func() error {
		out, err := breaker.Execute(func() (interface{}, error) {
			return r.store.Search(ctx, query)
		})
		if err != nil {
			// open breaker and cancellation are final
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			return err
		}
		res = out.(*retrieval.SearchResult)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.RetryInterval
	b.MaxInterval = 10 * p.RetryInterval
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.Retries), ctx))
	return Classify(res, err)
}

func (r *Runner) newBreaker(ctx context.Context, p Profile) *gobreaker.CircuitBreaker {
	trips := max(p.BreakerTrips, 1)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vectordb-" + p.Name,
		MaxRequests: 1,
		Timeout:     p.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.metrics.Counter(ctx, MetricBreakerChanges, 1, map[string]string{"profile": p.Name, "to": to.String()})
			r.log.Info(ctx, "circuit breaker state change",
				logger.Attr("breaker", name),
				logger.Attr("from", from.String()),
				logger.Attr("to", to.String()),
			)
		},
	})
}
