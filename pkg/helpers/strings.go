package helpers

import "strings"

// IsEmpty reports whether s is empty or only whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// DefaultString returns the first option that is not empty or whitespace.
//
// Example:
//
//	profile := helpers.DefaultString(flagValue, os.Getenv("SCENARIO"), "baseline")
func DefaultString(options ...string) string {
	for _, option := range options {
		if !IsEmpty(option) {
			return option
		}
	}
	return ""
}
