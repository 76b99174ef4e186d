// Package scenario drives load profiles against the simulated vector
// database and summarises how each request ended.
package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

// ErrUnknownProfile is returned by Lookup for names with no profile.
var ErrUnknownProfile = errors.New("unknown scenario profile")

// Phase sets the engine failure mode once the given fraction of requests
// has been dispatched.
type Phase struct {
	At   float64              // Fraction of Requests in [0, 1)
	Mode vectordb.FailureMode // Failure mode applied from this point
	Rate float64              // Failure rate applied from this point
}

// Profile describes one load shape.
type Profile struct {
	Name        string
	Description string

	Requests    int     // Total searches dispatched
	Concurrency int     // Max searches in flight
	Rate        float64 // Dispatch rate in requests per second; 0 is unpaced
	TopK        int     // Documents requested per search
	QueryPool   int     // Distinct queries cycled through, so repeats hit the cache

	Phases []Phase

	// Engine limits applied on top of the configured engine, if set.
	MaxConnections int
	AcquireTimeout time.Duration

	// Resilient wraps every search in a circuit breaker and retries with
	// exponential backoff.
	Resilient       bool
	Retries         uint64
	RetryInterval   time.Duration
	BreakerTrips    uint32        // Consecutive failures that open the breaker
	BreakerCooldown time.Duration // Time the breaker stays open before probing
}

var profiles = []Profile{
	{
		Name:        "baseline",
		Description: "steady load with no injected faults",
		Requests:    200,
		Concurrency: 8,
		TopK:        5,
		QueryPool:   50,
		Phases:      []Phase{{Mode: vectordb.FailureNone}},
	},
	{
		Name:        "chaos",
		Description: "30% of uncached searches fail with a simulated error",
		Requests:    200,
		Concurrency: 8,
		TopK:        5,
		QueryPool:   50,
		Phases:      []Phase{{Mode: vectordb.FailureError, Rate: 0.3}},
	},
	{
		Name:           "stress",
		Description:    "high concurrency against a small connection pool",
		Requests:       500,
		Concurrency:    64,
		TopK:           10,
		QueryPool:      400,
		Phases:         []Phase{{Mode: vectordb.FailureNone}},
		MaxConnections: 4,
		AcquireTimeout: 100 * time.Millisecond,
	},
	{
		Name:        "recovery",
		Description: "every search times out for the first half, then the engine recovers",
		Requests:    200,
		Concurrency: 8,
		Rate:        100,
		TopK:        5,
		QueryPool:   50,
		Phases: []Phase{
			{At: 0, Mode: vectordb.FailureTimeout, Rate: 1},
			{At: 0.5, Mode: vectordb.FailureNone},
		},
		Resilient:       true,
		Retries:         2,
		RetryInterval:   10 * time.Millisecond,
		BreakerTrips:    5,
		BreakerCooldown: 200 * time.Millisecond,
	},
}

// Profiles returns every built-in profile.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Lookup returns the built-in profile with the given name (case-insensitive).
func Lookup(name string) (Profile, error) {
	for _, p := range profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// Override returns p with every positive argument replacing the profile value.
func (p Profile) Override(requests, concurrency int, rate float64, topK int) Profile {
	if requests > 0 {
		p.Requests = requests
	}
	if concurrency > 0 {
		p.Concurrency = concurrency
	}
	if rate > 0 {
		p.Rate = rate
	}
	if topK > 0 {
		p.TopK = topK
	}
	return p
}

// EngineConfig applies the profile's engine limits and initial failure
// phase to base.
func (p Profile) EngineConfig(base vectordb.Config) vectordb.Config {
	if p.MaxConnections > 0 {
		base.MaxConcurrentConnections = p.MaxConnections
	}
	if p.AcquireTimeout > 0 {
		base.AcquireTimeout = p.AcquireTimeout
	}
	if len(p.Phases) > 0 {
		base.FailureMode = p.Phases[0].Mode
		base.FailureRate = p.Phases[0].Rate
	}
	return base
}

// Validate reports profile values the runner cannot execute.
func (p Profile) Validate() error {
	if p.Requests <= 0 {
		return fmt.Errorf("profile %s: requests must be greater than 0", p.Name)
	}
	if p.Concurrency <= 0 {
		return fmt.Errorf("profile %s: concurrency must be greater than 0", p.Name)
	}
	if p.Rate < 0 {
		return fmt.Errorf("profile %s: rate must not be negative", p.Name)
	}
	for _, ph := range p.Phases {
		if ph.At < 0 || ph.At >= 1 {
			return fmt.Errorf("profile %s: phase start %g outside [0, 1)", p.Name, ph.At)
		}
	}
	return nil
}

// phaseStarts maps request index to the phase that begins there.
func (p Profile) phaseStarts() map[int]Phase {
	starts := make(map[int]Phase, len(p.Phases))
	for _, ph := range p.Phases {
		starts[int(ph.At*float64(p.Requests))] = ph
	}
	return starts
}

var queryTopics = []string{
	"retry budgets", "cache invalidation", "vector recall", "chunk overlap",
	"timeout tuning", "embedding drift", "pipeline backpressure", "index sharding",
}

// queries builds the deterministic query pool of size n (at least one).
func queries(n int) []string {
	n = max(n, 1)
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s #%d", queryTopics[i%len(queryTopics)], i)
	}
	return out
}
