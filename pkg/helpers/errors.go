package helpers

import (
	"fmt"
)

// WrapError wraps an error with a context message, returning nil for a nil error.
//
// Example:
//
//	err := helpers.WrapError(err, "failed to read config file")
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with a formatted context message.
//
// Input: error to wrap, format string, and format arguments
// Output: wrapped error with formatted context, or nil if input error is nil
// Behavior: Uses fmt.Errorf with %w so errors.Is and errors.As see the cause
//
// Example:
//
//	err := helpers.WrapErrorf(err, "profile %s failed", name)
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}
