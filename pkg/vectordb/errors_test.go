package vectordb

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestErrorWrapsCause(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-1")
	err := error(WrapErr(ctx, context.Canceled, "search interrupted"))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is(%v, context.Canceled) = false", err)
	}
	var vErr *Error
	if !errors.As(err, &vErr) {
		t.Fatalf("errors.As(%v, *Error) = false", err)
	}
	if vErr.RequestID() != "req-1" {
		t.Errorf("RequestID() = %q, want req-1", vErr.RequestID())
	}
	if got := err.Error(); got != "search interrupted: context canceled" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorWithoutCause(t *testing.T) {
	t.Parallel()

	err := WrapErr(context.Background(), nil, "search aborted")
	if err.Error() != "search aborted" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}
	if err.RequestID() != "" {
		t.Errorf("RequestID() = %q, want empty", err.RequestID())
	}
	if attrs := err.LogAttrs(); len(attrs) != 0 {
		t.Errorf("LogAttrs() = %v, want none", attrs)
	}
}

func TestErrorLogAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ctx      context.Context
		wantKeys []string
	}{
		{
			name:     "with request id",
			ctx:      WithRequestID(context.Background(), "req-2"),
			wantKeys: []string{"error", "request_id", "top_k", "outcome"},
		},
		{
			name:     "without request id",
			ctx:      context.Background(),
			wantKeys: []string{"error", "top_k", "outcome"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := WrapErr(tt.ctx, context.DeadlineExceeded, "admission wait aborted").
				Tag(slog.Int("top_k", 5)).
				Tag(slog.String("outcome", string(OutcomeCancelled)))

			attrs := err.LogAttrs()
			if len(attrs) != len(tt.wantKeys) {
				t.Fatalf("LogAttrs() = %v, want keys %v", attrs, tt.wantKeys)
			}
			for i, key := range tt.wantKeys {
				if attrs[i].Key != key {
					t.Errorf("LogAttrs()[%d].Key = %q, want %q", i, attrs[i].Key, key)
				}
			}
			if attrs[len(attrs)-2].Value.Int64() != 5 {
				t.Errorf("top_k = %v, want 5", attrs[len(attrs)-2].Value)
			}
		})
	}
}

func TestRequestIDMissing(t *testing.T) {
	t.Parallel()

	if id := RequestID(context.Background()); id != "" {
		t.Errorf("RequestID() = %q, want empty", id)
	}
}

func TestAdmissionError(t *testing.T) {
	t.Parallel()

	err := error(&AdmissionError{Capacity: 2, InFlight: 2, Waited: 5 * time.Second})
	if !errors.Is(err, ErrAdmissionTimeout) {
		t.Errorf("errors.Is(%v, ErrAdmissionTimeout) = false", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Error("admission error should not match context.DeadlineExceeded")
	}
	want := "connection acquire timeout: 2/2 connections in use after 5s"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
