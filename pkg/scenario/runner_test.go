package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calque-ai/calque-stress/pkg/observability"
	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

func newTestEngine(t *testing.T, p Profile) *vectordb.Engine {
	t.Helper()

	base := vectordb.DefaultConfig()
	base.IndexSize = 50
	base.Seed = 3
	base.LatencyVariance = 0

	engine, err := vectordb.New(p.EngineConfig(base), vectordb.WithClock(vectordb.NewFakeClock(time.Unix(0, 0))))
	if err != nil {
		t.Fatalf("vectordb.New() error = %v", err)
	}
	return engine
}

func sum(outcomes map[Outcome]int) int {
	n := 0
	for _, c := range outcomes {
		n += c
	}
	return n
}

func TestRunnerBaseline(t *testing.T) {
	t.Parallel()

	p, _ := Lookup("baseline")
	p = p.Override(100, 4, 0, 3)
	metrics := observability.NewInMemoryMetricsProvider()
	tracer := observability.NewInMemoryTracerProvider()
	runner := NewRunner(newTestEngine(t, p), WithMetrics(metrics), WithTracer(tracer))

	report, err := runner.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Requests != 100 || sum(report.Outcomes) != 100 {
		t.Fatalf("requests = %d, outcomes = %v", report.Requests, report.Outcomes)
	}
	if report.Succeeded() != 100 {
		t.Errorf("baseline should have no failures: %v", report.Outcomes)
	}
	if report.Stats.TotalRequests != 100 {
		t.Errorf("engine saw %d requests, want 100", report.Stats.TotalRequests)
	}
	if report.Outcomes[OutcomeCacheHit] == 0 {
		t.Error("a 50-query pool over 100 requests should produce cache hits")
	}
	if report.Breaker != "" {
		t.Errorf("non-resilient profile reported breaker state %q", report.Breaker)
	}

	ok := metrics.GetCounter(MetricRequests, map[string]string{"profile": "baseline", "outcome": "ok"})
	hits := metrics.GetCounter(MetricRequests, map[string]string{"profile": "baseline", "outcome": "cache_hit"})
	if int(ok+hits) != 100 {
		t.Errorf("request counters = %d ok + %d hits, want 100", ok, hits)
	}
	if spans := tracer.GetSpansByName("scenario.run"); len(spans) != 1 {
		t.Errorf("expected one scenario.run span, got %d", len(spans))
	}
}

func TestRunnerChaos(t *testing.T) {
	t.Parallel()

	p, _ := Lookup("chaos")
	p = p.Override(200, 8, 0, 0)
	runner := NewRunner(newTestEngine(t, p))

	report, err := runner.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	failed := report.Outcomes[OutcomeInjectedFailure]
	if failed == 0 || failed == report.Requests {
		t.Errorf("expected some but not all requests to fail, got %d of %d", failed, report.Requests)
	}
	if int64(failed) != report.Stats.Failures {
		t.Errorf("report failures %d != engine failures %d", failed, report.Stats.Failures)
	}
	if report.Succeeded()+failed != report.Requests {
		t.Errorf("unexpected outcomes: %v", report.Outcomes)
	}
}

func TestRunnerPartialResults(t *testing.T) {
	t.Parallel()

	p := Profile{
		Name:        "partial",
		Requests:    20,
		Concurrency: 2,
		TopK:        4,
		QueryPool:   20,
		Phases:      []Phase{{Mode: vectordb.FailurePartialResult, Rate: 1}},
	}
	runner := NewRunner(newTestEngine(t, p))

	report, err := runner.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Outcomes[OutcomePartial] != 20 {
		t.Errorf("expected every request to be partial, got %v", report.Outcomes)
	}
}

func TestRunnerRecovery(t *testing.T) {
	t.Parallel()

	p, _ := Lookup("recovery")
	p.Rate = 2000
	p.RetryInterval = time.Millisecond
	p.BreakerCooldown = 5 * time.Millisecond
	metrics := observability.NewInMemoryMetricsProvider()
	engine := newTestEngine(t, p)
	runner := NewRunner(engine, WithMetrics(metrics))

	report, err := runner.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum(report.Outcomes) != p.Requests {
		t.Fatalf("outcomes %v do not add up to %d", report.Outcomes, p.Requests)
	}
	if report.Outcomes[OutcomeBreakerOpen] == 0 {
		t.Errorf("breaker never opened: %v", report.Outcomes)
	}
	if report.Succeeded() == 0 {
		t.Errorf("engine never recovered: %v", report.Outcomes)
	}
	if mode, _ := engine.FailureMode(); mode != vectordb.FailureNone {
		t.Errorf("final failure mode = %s, want none", mode)
	}
	if metrics.GetCounter(MetricBreakerChanges, map[string]string{"profile": "recovery", "to": "open"}) == 0 {
		t.Error("no transition to open recorded")
	}
}

func TestRunnerStress(t *testing.T) {
	t.Parallel()

	p, _ := Lookup("stress")
	p = p.Override(200, 32, 0, 0)

	base := vectordb.DefaultConfig()
	base.IndexSize = 50
	base.BaseLatency = 2 * time.Millisecond
	base.LatencyVariance = 0
	base.Seed = 9
	engine, err := vectordb.New(p.EngineConfig(base))
	if err != nil {
		t.Fatalf("vectordb.New() error = %v", err)
	}

	report, err := NewRunner(engine).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum(report.Outcomes) != 200 {
		t.Fatalf("outcomes %v do not add up to 200", report.Outcomes)
	}
	if report.Outcomes[OutcomeAdmissionTimeout] != int(report.Stats.ConnectionWaits) {
		t.Errorf("admission timeouts %d != engine waits %d", report.Outcomes[OutcomeAdmissionTimeout], report.Stats.ConnectionWaits)
	}
	if report.Stats.InFlight != 0 {
		t.Errorf("InFlight = %d after the run", report.Stats.InFlight)
	}
}

func TestRunnerCancelled(t *testing.T) {
	t.Parallel()

	p, _ := Lookup("baseline")
	runner := NewRunner(newTestEngine(t, p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := runner.Run(ctx, p)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if report == nil || report.Requests != 0 {
		t.Errorf("expected an empty partial report, got %+v", report)
	}
}

func TestRunnerInvalidProfile(t *testing.T) {
	t.Parallel()

	runner := NewRunner(newTestEngine(t, Profile{}))
	if _, err := runner.Run(context.Background(), Profile{Name: "empty"}); err == nil {
		t.Fatal("expected an error for a profile without requests")
	}
}
