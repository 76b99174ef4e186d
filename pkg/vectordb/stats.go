package vectordb

import (
	"slices"
	"sync"
)

// Stats is a point-in-time view of the engine counters.
type Stats struct {
	TotalRequests   int64   `json:"total_requests" yaml:"total_requests"`
	CacheHits       int64   `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses     int64   `json:"cache_misses" yaml:"cache_misses"`
	ConnectionWaits int64   `json:"connection_waits" yaml:"connection_waits"`
	Failures        int64   `json:"failures" yaml:"failures"`
	CacheHitRate    float64 `json:"cache_hit_rate" yaml:"cache_hit_rate"`
	Samples         int     `json:"samples" yaml:"samples"`
	AvgLatencyMs    float64 `json:"avg_latency_ms" yaml:"avg_latency_ms"`
	P50LatencyMs    float64 `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P95LatencyMs    float64 `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	P99LatencyMs    float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	CacheEntries    int     `json:"cache_entries" yaml:"cache_entries"`
	InFlight        int     `json:"in_flight" yaml:"in_flight"`
}

// StatsCollector accumulates counters and latency samples.
//
// Percentiles are recomputed from a sorted copy of every sample on each
// Snapshot; the sample list is unbounded until Reset.
type StatsCollector struct {
	mu              sync.Mutex
	totalRequests   int64
	cacheHits       int64
	cacheMisses     int64
	connectionWaits int64
	failures        int64
	latencies       []float64
}

// NewStatsCollector returns an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

func (s *StatsCollector) RecordRequest() { s.add(&s.totalRequests) }
func (s *StatsCollector) RecordHit()     { s.add(&s.cacheHits) }
func (s *StatsCollector) RecordMiss()    { s.add(&s.cacheMisses) }
func (s *StatsCollector) RecordWait()    { s.add(&s.connectionWaits) }
func (s *StatsCollector) RecordFailure() { s.add(&s.failures) }

// RecordLatency appends one latency sample in milliseconds.
func (s *StatsCollector) RecordLatency(ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencies = append(s.latencies, ms)
}

func (s *StatsCollector) add(counter *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter++
}

// Snapshot returns current counters with percentiles computed from a sorted
// copy of the samples.
func (s *StatsCollector) Snapshot() Stats {
	s.mu.Lock()
	st := Stats{
		TotalRequests:   s.totalRequests,
		CacheHits:       s.cacheHits,
		CacheMisses:     s.cacheMisses,
		ConnectionWaits: s.connectionWaits,
		Failures:        s.failures,
	}
	samples := slices.Clone(s.latencies)
	s.mu.Unlock()

	if lookups := st.CacheHits + st.CacheMisses; lookups > 0 {
		st.CacheHitRate = float64(st.CacheHits) / float64(lookups)
	}

	st.Samples = len(samples)
	if len(samples) == 0 {
		return st
	}

	slices.Sort(samples)
	var sum float64
	for _, v := range samples {
		sum += v
	}
	st.AvgLatencyMs = sum / float64(len(samples))
	st.P50LatencyMs = percentile(samples, 0.50)
	st.P95LatencyMs = percentile(samples, 0.95)
	st.P99LatencyMs = percentile(samples, 0.99)
	return st
}

// Reset zeroes every counter and drops all samples.
func (s *StatsCollector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests = 0
	s.cacheHits = 0
	s.cacheMisses = 0
	s.connectionWaits = 0
	s.failures = 0
	s.latencies = nil
}

// percentile picks sorted[floor(p*n)], clamped to the last sample.
func percentile(sorted []float64, p float64) float64 {
	idx := min(int(p*float64(len(sorted))), len(sorted)-1)
	return sorted[idx]
}
