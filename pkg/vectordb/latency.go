package vectordb

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	minLatency       = time.Millisecond
	scalingThreshold = 100_000
	scalingSlope     = 0.5
	maxLatencyScale  = 3.0
)

// LatencyModel computes the simulated latency of one uncached search.
type LatencyModel struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLatencyModel creates a latency model drawing jitter from rng.
func NewLatencyModel(rng *rand.Rand) *LatencyModel {
	return &LatencyModel{rng: rng}
}

// Compute returns base plus uniform jitter in [-variance, variance], floored
// at one millisecond, then scaled for indexes above 100k documents when
// scaling is enabled.
func (m *LatencyModel) Compute(base, variance time.Duration, indexSize int, enableScaling bool) time.Duration {
	latency := float64(base)
	if variance > 0 {
		m.mu.Lock()
		u := m.rng.Float64()
		m.mu.Unlock()
		latency += (u*2 - 1) * float64(variance)
	}
	latency = max(latency, float64(minLatency))

	if enableScaling {
		latency *= LatencyScale(indexSize)
	}
	return time.Duration(latency)
}

// LatencyScale returns the multiplier applied for an index of the given size.
func LatencyScale(indexSize int) float64 {
	if indexSize <= scalingThreshold {
		return 1
	}
	scale := 1 + float64(indexSize-scalingThreshold)/scalingThreshold*scalingSlope
	return min(scale, maxLatencyScale)
}
