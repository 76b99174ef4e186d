package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned by Store and Delete; the simulated index is fixed at construction.
	ErrReadOnly = errors.New("vector store is read-only")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("vector store is closed")
	// ErrSearchFailed matches every *SearchError.
	ErrSearchFailed = errors.New("vector search failed")
)

// SearchError carries a failure reported by the engine in its result rather
// than as a Go error, such as an injected timeout.
type SearchError struct {
	Message   string
	LatencyMs float64
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: %s after %.1fms", ErrSearchFailed, e.Message, e.LatencyMs)
}

// Is makes errors.Is(err, ErrSearchFailed) hold.
func (e *SearchError) Is(target error) bool {
	return target == ErrSearchFailed
}
