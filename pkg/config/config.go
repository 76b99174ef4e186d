// Package config loads the stress harness configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables (a .env file in the working directory is loaded
// first and never overrides variables already set).
//
// Example config.yaml:
//
//	vectordb:
//	  base_latency_ms: 50
//	  latency_variance_ms: 20
//	  max_concurrent_connections: 10
//	  failure_mode: none
//	scenario:
//	  profile: chaos
//	  requests: 500
//	log:
//	  level: debug
//	  format: json
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/calque-ai/calque-stress/pkg/helpers"
	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

// Config is the full harness configuration.
type Config struct {
	VectorDB VectorDB `yaml:"vectordb"`
	Scenario Scenario `yaml:"scenario"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
	Tracing  Tracing  `yaml:"tracing"`
}

// VectorDB holds the engine tunables in their file representation.
type VectorDB struct {
	BaseLatencyMs        int     `yaml:"base_latency_ms"`
	LatencyVarianceMs    int     `yaml:"latency_variance_ms"`
	MaxConcurrentConns   int     `yaml:"max_concurrent_connections"`
	AcquireTimeoutMs     int     `yaml:"connection_acquire_timeout_ms"`
	CacheSize            int     `yaml:"cache_size"`
	CacheTTLSeconds      int     `yaml:"cache_ttl_seconds"`
	FailureRate          float64 `yaml:"failure_rate"`
	FailureMode          string  `yaml:"failure_mode"`
	IndexSize            int     `yaml:"index_size"`
	EnableLatencyScaling bool    `yaml:"enable_latency_scaling"`
	Seed                 uint64  `yaml:"seed"`
}

// Scenario selects a load profile and optionally overrides its shape.
// Zero values keep the profile's own settings.
type Scenario struct {
	Profile     string  `yaml:"profile"`
	Requests    int     `yaml:"requests"`
	Concurrency int     `yaml:"concurrency"`
	Rate        float64 `yaml:"rate"` // requests per second, 0 for unpaced
	TopK        int     `yaml:"top_k"`

	// Timeout bounds the whole run; 0 means no bound.
	Timeout time.Duration `yaml:"timeout"`
}

// Log configures the zerolog backend.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console", "json" or "slog"
}

// Metrics configures the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Tracing configures OTLP export. An empty Endpoint disables it.
type Tracing struct {
	Endpoint    string  `yaml:"endpoint"`
	UseHTTP     bool    `yaml:"use_http"`
	SampleRate  float64 `yaml:"sample_rate"`
	ServiceName string  `yaml:"service_name"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	d := vectordb.DefaultConfig()
	return Config{
		VectorDB: VectorDB{
			BaseLatencyMs:        int(d.BaseLatency / time.Millisecond),
			LatencyVarianceMs:    int(d.LatencyVariance / time.Millisecond),
			MaxConcurrentConns:   d.MaxConcurrentConnections,
			AcquireTimeoutMs:     int(d.AcquireTimeout / time.Millisecond),
			CacheSize:            d.CacheSize,
			CacheTTLSeconds:      int(d.CacheTTL / time.Second),
			FailureRate:          d.FailureRate,
			FailureMode:          d.FailureMode.String(),
			IndexSize:            d.IndexSize,
			EnableLatencyScaling: d.EnableLatencyScaling,
		},
		Scenario: Scenario{Profile: "baseline"},
		Log:      Log{Level: "info", Format: "console"},
		Tracing:  Tracing{SampleRate: 1.0, ServiceName: "vectordb-stress"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, helpers.WrapError(err, "failed to load .env")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, helpers.WrapError(err, "failed to read config file")
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, helpers.WrapErrorf(err, "failed to parse %s", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over cfg; keys absent from data keep their current value.
// Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	return yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField())
}

func (c *Config) applyEnv() {
	v := &c.VectorDB
	v.BaseLatencyMs = helpers.GetIntFromEnv("VECTORDB_BASE_LATENCY_MS", v.BaseLatencyMs)
	v.LatencyVarianceMs = helpers.GetIntFromEnv("VECTORDB_LATENCY_VARIANCE_MS", v.LatencyVarianceMs)
	v.MaxConcurrentConns = helpers.GetIntFromEnv("VECTORDB_MAX_CONCURRENT_CONNECTIONS", v.MaxConcurrentConns)
	v.AcquireTimeoutMs = helpers.GetIntFromEnv("VECTORDB_CONNECTION_ACQUIRE_TIMEOUT_MS", v.AcquireTimeoutMs)
	v.CacheSize = helpers.GetIntFromEnv("VECTORDB_CACHE_SIZE", v.CacheSize)
	v.CacheTTLSeconds = helpers.GetIntFromEnv("VECTORDB_CACHE_TTL_SECONDS", v.CacheTTLSeconds)
	v.FailureRate = helpers.GetFloatFromEnv("VECTORDB_FAILURE_RATE", v.FailureRate)
	v.FailureMode = helpers.GetStringFromEnv("VECTORDB_FAILURE_MODE", v.FailureMode)
	v.IndexSize = helpers.GetIntFromEnv("VECTORDB_INDEX_SIZE", v.IndexSize)
	v.EnableLatencyScaling = helpers.GetBoolFromEnv("VECTORDB_ENABLE_LATENCY_SCALING", v.EnableLatencyScaling)
	v.Seed = helpers.GetUint64FromEnv("VECTORDB_SEED", v.Seed)

	c.Scenario.Profile = helpers.GetStringFromEnv("SCENARIO", c.Scenario.Profile)
	c.Scenario.Timeout = helpers.GetDurationFromEnv("SCENARIO_TIMEOUT", c.Scenario.Timeout)
	c.Log.Level = helpers.GetStringFromEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = helpers.GetStringFromEnv("LOG_FORMAT", c.Log.Format)
	c.Metrics.Addr = helpers.GetStringFromEnv("METRICS_ADDR", c.Metrics.Addr)
	c.Tracing.Endpoint = helpers.GetStringFromEnv("OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.UseHTTP = helpers.GetBoolFromEnv("OTLP_USE_HTTP", c.Tracing.UseHTTP)
}

// Validate checks every section. Engine limits are delegated to vectordb.Config.Validate.
func (c Config) Validate() error {
	if _, err := c.VectorDB.EngineConfig(); err != nil {
		return err
	}
	if c.Scenario.Requests < 0 || c.Scenario.Concurrency < 0 || c.Scenario.TopK < 0 {
		return fmt.Errorf("scenario requests, concurrency and top_k must not be negative")
	}
	if c.Scenario.Timeout < 0 {
		return fmt.Errorf("scenario timeout must not be negative, got %s", c.Scenario.Timeout)
	}
	if c.Scenario.Rate < 0 {
		return fmt.Errorf("scenario rate must not be negative, got %g", c.Scenario.Rate)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json", "slog":
	default:
		return fmt.Errorf("log format must be console, json or slog, got %q", c.Log.Format)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing sample_rate must be within [0, 1], got %g", c.Tracing.SampleRate)
	}
	return nil
}

// EngineConfig converts the file representation into a validated vectordb.Config.
func (v VectorDB) EngineConfig() (vectordb.Config, error) {
	mode, err := vectordb.ParseFailureMode(v.FailureMode)
	if err != nil {
		return vectordb.Config{}, err
	}
	cfg := vectordb.Config{
		BaseLatency:              time.Duration(v.BaseLatencyMs) * time.Millisecond,
		LatencyVariance:          time.Duration(v.LatencyVarianceMs) * time.Millisecond,
		MaxConcurrentConnections: v.MaxConcurrentConns,
		AcquireTimeout:           time.Duration(v.AcquireTimeoutMs) * time.Millisecond,
		CacheSize:                v.CacheSize,
		CacheTTL:                 time.Duration(v.CacheTTLSeconds) * time.Second,
		FailureRate:              v.FailureRate,
		FailureMode:              mode,
		IndexSize:                v.IndexSize,
		EnableLatencyScaling:     v.EnableLatencyScaling,
		Seed:                     v.Seed,
	}
	if err := cfg.Validate(); err != nil {
		return vectordb.Config{}, err
	}
	return cfg, nil
}
