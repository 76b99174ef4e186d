// Package helpers provides small utilities shared by the stress harness packages.
package helpers

import (
	"os"
	"strconv"
	"time"
)

// fromEnv returns parse(os.Getenv(key)), or defaultValue when the variable
// is unset, empty or fails to parse.
func fromEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetStringFromEnv returns the environment variable value or the default if it is unset or empty.
//
// Example:
//
//	level := helpers.GetStringFromEnv("LOG_LEVEL", "info")
func GetStringFromEnv(key, defaultValue string) string {
	return fromEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// GetIntFromEnv returns the environment variable parsed as an int.
//
// Input: environment variable key and default int value
// Output: int value from environment or default
// Behavior: Returns default if env var is empty, not set, or not a valid integer
//
// Example:
//
//	connections := helpers.GetIntFromEnv("VECTORDB_MAX_CONCURRENT_CONNECTIONS", 10)
func GetIntFromEnv(key string, defaultValue int) int {
	return fromEnv(key, defaultValue, strconv.Atoi)
}

// GetUint64FromEnv returns the environment variable parsed as a base 10 uint64.
func GetUint64FromEnv(key string, defaultValue uint64) uint64 {
	return fromEnv(key, defaultValue, func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	})
}

// GetFloatFromEnv returns the environment variable parsed as a float64.
//
// Example:
//
//	rate := helpers.GetFloatFromEnv("VECTORDB_FAILURE_RATE", 0)
func GetFloatFromEnv(key string, defaultValue float64) float64 {
	return fromEnv(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetBoolFromEnv accepts the spellings strconv.ParseBool does.
func GetBoolFromEnv(key string, defaultValue bool) bool {
	return fromEnv(key, defaultValue, strconv.ParseBool)
}

// GetDurationFromEnv returns the environment variable value as a duration.
//
// Input: environment variable key and default duration value
// Output: time.Duration value from environment or default
// Behavior: Returns default if env var is empty, not set, or not a valid duration string
//
// Example:
//
//	timeout := helpers.GetDurationFromEnv("SCENARIO_TIMEOUT", 30*time.Second)
func GetDurationFromEnv(key string, defaultValue time.Duration) time.Duration {
	return fromEnv(key, defaultValue, time.ParseDuration)
}
