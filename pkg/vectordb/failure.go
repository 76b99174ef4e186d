package vectordb

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// FailureMode selects how the failure injector perturbs a search.
type FailureMode int

const (
	// FailureNone disables injection
	FailureNone FailureMode = iota
	// FailureTimeout multiplies latency by 10 and, when sampled, fails after sleeping
	FailureTimeout
	// FailureError fails immediately when sampled
	FailureError
	// FailureLatencySpike multiplies latency by 5 when sampled
	FailureLatencySpike
	// FailurePartialResult is a marker for callers; the engine does not act on it
	FailurePartialResult
)

const (
	timeoutLatencyFactor = 10
	spikeLatencyFactor   = 5

	simulatedTimeoutMsg = "Simulated timeout"
	simulatedErrorMsg   = "Simulated vector DB error"
)

var failureModeNames = map[FailureMode]string{
	FailureNone:          "none",
	FailureTimeout:       "timeout",
	FailureError:         "error",
	FailureLatencySpike:  "latency_spike",
	FailurePartialResult: "partial_result",
}

// String returns the lower snake case name of the mode.
func (m FailureMode) String() string {
	if name, ok := failureModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("FailureMode(%d)", int(m))
}

func (m FailureMode) valid() bool {
	_, ok := failureModeNames[m]
	return ok
}

// ParseFailureMode converts a mode name ("none", "timeout", "error",
// "latency_spike", "partial_result") into a FailureMode. Matching is
// case-insensitive and accepts dashes in place of underscores.
func ParseFailureMode(s string) (FailureMode, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if name == "" {
		return FailureNone, nil
	}
	for mode, n := range failureModeNames {
		if n == name {
			return mode, nil
		}
	}
	return FailureNone, fmt.Errorf("unknown failure mode %q", s)
}

// FailureDecision is the outcome of one failure sample.
type FailureDecision struct {
	Latency time.Duration // Latency to simulate after adjustments
	Fail    bool          // Whether the call must fail
	Message string        // Failure message when Fail is set
	Sleep   bool          // Whether Latency is slept before failing
}

// FailureInjector holds the current failure mode and rate.
type FailureInjector struct {
	mu   sync.Mutex
	mode FailureMode
	rate float64
	rng  *rand.Rand
}

// NewFailureInjector creates an injector drawing from rng.
func NewFailureInjector(mode FailureMode, rate float64, rng *rand.Rand) *FailureInjector {
	return &FailureInjector{mode: mode, rate: clampRate(rate), rng: rng}
}

// Set replaces mode and rate in a single step. Any mode may follow any other.
func (f *FailureInjector) Set(mode FailureMode, rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
	f.rate = clampRate(rate)
}

// Current returns the active mode and rate.
func (f *FailureInjector) Current() (FailureMode, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode, f.rate
}

// Sample draws one Bernoulli(rate) value.
func (f *FailureInjector) Sample() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sampleLocked()
}

// Decide draws one sample and applies the active mode to latency.
func (f *FailureInjector) Decide(latency time.Duration) FailureDecision {
	f.mu.Lock()
	mode := f.mode
	hit := f.sampleLocked()
	f.mu.Unlock()

	d := FailureDecision{Latency: latency}
	switch mode {
	case FailureTimeout:
		d.Latency = latency * timeoutLatencyFactor
		if hit {
			d.Fail = true
			d.Sleep = true
			d.Message = simulatedTimeoutMsg
		}
	case FailureError:
		if hit {
			d.Fail = true
			d.Message = simulatedErrorMsg
		}
	case FailureLatencySpike:
		if hit {
			d.Latency = latency * spikeLatencyFactor
		}
	case FailureNone, FailurePartialResult:
	}
	return d
}

func (f *FailureInjector) sampleLocked() bool {
	switch {
	case f.rate <= 0:
		return false
	case f.rate >= 1:
		return true
	default:
		return f.rng.Float64() < f.rate
	}
}

func clampRate(rate float64) float64 {
	return min(max(rate, 0), 1)
}
