package vectordb

import (
	"fmt"
	"time"
)

// Config is an immutable snapshot of the engine tunables.
//
// Only the failure mode and rate can change after construction, and only
// through Engine.SetFailureMode.
type Config struct {
	BaseLatency              time.Duration // Floor delay applied to every uncached search
	LatencyVariance          time.Duration // Uniform jitter range (+/-) around BaseLatency
	MaxConcurrentConnections int           // Admission capacity
	AcquireTimeout           time.Duration // Admission wait bound; <= 0 means try once
	CacheSize                int           // Max resident cache entries
	CacheTTL                 time.Duration // Cache freshness window
	FailureRate              float64       // Bernoulli rate for the failure injector
	FailureMode              FailureMode   // Initial failure injector mode
	IndexSize                int           // Number of synthetic documents
	EnableLatencyScaling     bool          // Scale latency for large indexes
	Seed                     uint64        // Random source seed; 0 seeds from the wall clock
}

// DefaultConfig returns the tunables used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseLatency:              50 * time.Millisecond,
		LatencyVariance:          20 * time.Millisecond,
		MaxConcurrentConnections: 10,
		AcquireTimeout:           5 * time.Second,
		CacheSize:                100,
		CacheTTL:                 300 * time.Second,
		FailureRate:              0,
		FailureMode:              FailureNone,
		IndexSize:                1000,
		EnableLatencyScaling:     true,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.BaseLatency < 0 {
		return fmt.Errorf("base latency must not be negative, got %s", c.BaseLatency)
	}
	if c.LatencyVariance < 0 {
		return fmt.Errorf("latency variance must not be negative, got %s", c.LatencyVariance)
	}
	if c.MaxConcurrentConnections <= 0 {
		return fmt.Errorf("max concurrent connections must be greater than 0, got %d", c.MaxConcurrentConnections)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("failure rate must be within [0, 1], got %g", c.FailureRate)
	}
	if !c.FailureMode.valid() {
		return fmt.Errorf("unknown failure mode %d", int(c.FailureMode))
	}
	if c.IndexSize < 0 {
		return fmt.Errorf("index size must not be negative, got %d", c.IndexSize)
	}
	return nil
}
