package scenario

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/calque-ai/calque-stress/pkg/retrieval"
	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

// Outcome classifies how one scenario request ended.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeCacheHit         Outcome = "cache_hit"
	OutcomePartial          Outcome = "partial"
	OutcomeInjectedFailure  Outcome = "injected_failure"
	OutcomeAdmissionTimeout Outcome = "admission_timeout"
	OutcomeBreakerOpen      Outcome = "breaker_open"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeError            Outcome = "error"
)

// Classify maps a store search result to an Outcome.
func Classify(res *retrieval.SearchResult, err error) Outcome {
	switch {
	case err == nil && res.Partial:
		return OutcomePartial
	case err == nil && res.CacheHit:
		return OutcomeCacheHit
	case err == nil:
		return OutcomeOK
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return OutcomeBreakerOpen
	case errors.Is(err, vectordb.ErrAdmissionTimeout):
		return OutcomeAdmissionTimeout
	case errors.Is(err, retrieval.ErrSearchFailed):
		return OutcomeInjectedFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

// Succeeded reports whether o carries usable documents.
func (o Outcome) Succeeded() bool {
	return o == OutcomeOK || o == OutcomeCacheHit || o == OutcomePartial
}
