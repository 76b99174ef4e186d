package helpers

import (
	"errors"
	"testing"
)

func TestWrapError(t *testing.T) {
	t.Parallel()

	base := errors.New("original error")
	tests := []struct {
		name     string
		err      error
		message  string
		expected string
	}{
		{"wrap non-nil error", base, "failed to process", "failed to process: original error"},
		{"wrap with empty message", base, "", ": original error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := WrapError(tt.err, tt.message)
			if result.Error() != tt.expected {
				t.Errorf("WrapError() = %q, want %q", result.Error(), tt.expected)
			}
			if !errors.Is(result, base) {
				t.Error("wrapped error should match the original with errors.Is")
			}
		})
	}

	if WrapError(nil, "ignored") != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestWrapErrorf(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	result := WrapErrorf(base, "profile %s step %d", "chaos", 3)
	if result.Error() != "profile chaos step 3: boom" {
		t.Errorf("WrapErrorf() = %q", result.Error())
	}
	if !errors.Is(result, base) {
		t.Error("wrapped error should match the original with errors.Is")
	}
	if WrapErrorf(nil, "profile %s", "x") != nil {
		t.Error("WrapErrorf(nil) should return nil")
	}
}
