package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"
)

const defaultHealthTimeout = 5 * time.Second

// HealthChecker is one dependency probe exposed on the health endpoint.
type HealthChecker interface {
	// Name appears as the key in the health report.
	Name() string
	// Check returns nil when healthy. ctx carries the check timeout.
	Check(ctx context.Context) error
	// Timeout bounds Check; zero uses the registry default.
	Timeout() time.Duration
}

// HealthStatus represents the overall health status of the system.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is the outcome of a single check.
type HealthCheckResult struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"` // "ok" or "error"
	Error     string  `json:"error,omitempty"`
	LatencyMs float64 `json:"latency_ms"`
}

// HealthReport is the JSON body served by HealthRegistry.Handler.
type HealthReport struct {
	Status    HealthStatus                 `json:"status"`
	Checks    map[string]HealthCheckResult `json:"checks"`
	Uptime    string                       `json:"uptime"`
	Timestamp time.Time                    `json:"timestamp"`
}

// FuncHealthCheck wraps a function as a HealthChecker.
type FuncHealthCheck struct {
	CheckName    string
	CheckFunc    func(ctx context.Context) error
	CheckTimeout time.Duration
}

func (c *FuncHealthCheck) Name() string                    { return c.CheckName }
func (c *FuncHealthCheck) Check(ctx context.Context) error { return c.CheckFunc(ctx) }
func (c *FuncHealthCheck) Timeout() time.Duration          { return c.CheckTimeout }

// HealthRegistry runs registered checks concurrently.
//
//	registry := observability.NewHealthRegistry(2 * time.Second)
//	registry.Register(&observability.FuncHealthCheck{CheckName: "vectordb", CheckFunc: store.Health})
//	mux.Handle("/healthz", registry.Handler())
type HealthRegistry struct {
	mu      sync.RWMutex
	checks  map[string]HealthChecker
	timeout time.Duration
	started time.Time
}

// NewHealthRegistry creates an empty registry. A timeout <= 0 uses 5s.
func NewHealthRegistry(timeout time.Duration) *HealthRegistry {
	if timeout <= 0 {
		timeout = defaultHealthTimeout
	}
	return &HealthRegistry{
		checks:  make(map[string]HealthChecker),
		timeout: timeout,
		started: time.Now(),
	}
}

// Register adds check, replacing any check with the same name.
func (r *HealthRegistry) Register(check HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[check.Name()] = check
}

// Unregister removes the named check.
func (r *HealthRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checks, name)
}

// RunAll runs every check concurrently. Any failure marks the report unhealthy.
func (r *HealthRegistry) RunAll(ctx context.Context) HealthReport {
	r.mu.RLock()
	checks := make([]HealthChecker, 0, len(r.checks))
	for _, c := range r.checks {
		checks = append(checks, c)
	}
	r.mu.RUnlock()

	report := HealthReport{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]HealthCheckResult, len(checks)),
		Uptime:    time.Since(r.started).Round(time.Second).String(),
		Timestamp: time.Now(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := r.run(ctx, c)

			mu.Lock()
			defer mu.Unlock()
			report.Checks[result.Name] = result
			if result.Status != "ok" {
				report.Status = HealthStatusUnhealthy
			}
		}()
	}
	wg.Wait()
	return report
}

func (r *HealthRegistry) run(ctx context.Context, c HealthChecker) HealthCheckResult {
	timeout := c.Timeout()
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := c.Check(ctx)
	result := HealthCheckResult{
		Name:      c.Name(),
		Status:    "ok",
		LatencyMs: float64(time.Since(start)) / float64(time.Millisecond),
	}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
	}
	return result
}

// Names returns the registered check names in sorted order.
func (r *HealthRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checks))
	for n := range r.checks {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Handler serves the report as JSON with 200 when healthy and 503 otherwise.
func (r *HealthRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		report := r.RunAll(req.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})
}
