package vectordb

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero latency", mutate: func(c *Config) { c.BaseLatency, c.LatencyVariance = 0, 0 }},
		{name: "zero cache", mutate: func(c *Config) { c.CacheSize = 0 }},
		{name: "negative base latency", mutate: func(c *Config) { c.BaseLatency = -time.Millisecond }, wantErr: "base latency"},
		{name: "negative variance", mutate: func(c *Config) { c.LatencyVariance = -time.Millisecond }, wantErr: "latency variance"},
		{name: "no connections", mutate: func(c *Config) { c.MaxConcurrentConnections = 0 }, wantErr: "max concurrent connections"},
		{name: "negative cache size", mutate: func(c *Config) { c.CacheSize = -1 }, wantErr: "cache size"},
		{name: "negative ttl", mutate: func(c *Config) { c.CacheTTL = -time.Second }, wantErr: "cache ttl"},
		{name: "rate above one", mutate: func(c *Config) { c.FailureRate = 1.5 }, wantErr: "failure rate"},
		{name: "rate below zero", mutate: func(c *Config) { c.FailureRate = -0.1 }, wantErr: "failure rate"},
		{name: "unknown mode", mutate: func(c *Config) { c.FailureMode = FailureMode(42) }, wantErr: "failure mode"},
		{name: "negative index", mutate: func(c *Config) { c.IndexSize = -5 }, wantErr: "index size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.BaseLatency != 50*time.Millisecond || cfg.LatencyVariance != 20*time.Millisecond {
		t.Errorf("unexpected latency defaults: %s/%s", cfg.BaseLatency, cfg.LatencyVariance)
	}
	if cfg.MaxConcurrentConnections != 10 || cfg.AcquireTimeout != 5*time.Second {
		t.Errorf("unexpected admission defaults: %d/%s", cfg.MaxConcurrentConnections, cfg.AcquireTimeout)
	}
	if cfg.CacheSize != 100 || cfg.CacheTTL != 300*time.Second {
		t.Errorf("unexpected cache defaults: %d/%s", cfg.CacheSize, cfg.CacheTTL)
	}
	if cfg.FailureMode != FailureNone || cfg.FailureRate != 0 {
		t.Errorf("unexpected failure defaults: %s/%v", cfg.FailureMode, cfg.FailureRate)
	}
	if cfg.IndexSize != 1000 || !cfg.EnableLatencyScaling {
		t.Errorf("unexpected index defaults: %d/%v", cfg.IndexSize, cfg.EnableLatencyScaling)
	}
}
