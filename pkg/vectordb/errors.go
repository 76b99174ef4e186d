package vectordb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAdmissionTimeout is matched by every admission timeout error.
var ErrAdmissionTimeout = errors.New("connection acquire timeout")

// AdmissionError reports that no admission slot became free within the
// configured wait bound.
type AdmissionError struct {
	Capacity int
	InFlight int
	Waited   time.Duration
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s: %d/%d connections in use after %s", ErrAdmissionTimeout, e.InFlight, e.Capacity, e.Waited)
}

// Is makes errors.Is(err, ErrAdmissionTimeout) hold.
func (e *AdmissionError) Is(target error) bool {
	return target == ErrAdmissionTimeout
}

// Error is a context-aware error carrying the search request ID and
// structured attributes for logging.
//
// Example:
//
//	return vectordb.WrapErr(ctx, err, "search aborted").
//	    Tag(slog.Int("top_k", topK))
type Error struct {
	msg       string
	cause     error
	requestID string
	attrs     []slog.Attr
}

// WrapErr wraps err with msg and the request ID found in ctx.
func WrapErr(ctx context.Context, err error, msg string) *Error {
	return &Error{
		msg:       msg,
		cause:     err,
		requestID: RequestID(ctx),
	}
}

// Tag appends attributes and returns e for chaining.
func (e *Error) Tag(attrs ...slog.Attr) *Error {
	e.attrs = append(e.attrs, attrs...)
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the cause so errors.Is and errors.As see through e.
func (e *Error) Unwrap() error {
	return e.cause
}

// RequestID returns the request ID captured when the error was created.
func (e *Error) RequestID() string {
	return e.requestID
}

// LogAttrs returns the cause, request ID and tags as slog attributes.
func (e *Error) LogAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)
	if e.cause != nil {
		attrs = append(attrs, slog.Any("error", e.cause))
	}
	if e.requestID != "" {
		attrs = append(attrs, slog.String("request_id", e.requestID))
	}
	return append(attrs, e.attrs...)
}

type ctxKey string

const requestIDKey ctxKey = "vectordb.request_id"

// WithRequestID returns a context carrying the search request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from ctx, or "" if none is set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
