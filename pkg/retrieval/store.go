package retrieval

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calque-ai/calque-stress/pkg/helpers"
	"github.com/calque-ai/calque-stress/pkg/logger"
	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

const defaultLimit = 5

// Store adapts a vectordb.Engine to the VectorStore interface.
//
// Partial-result injection is applied here, after the engine returns: when
// the engine's failure mode is FailurePartialResult, each search is truncated
// to half of its documents with probability equal to the failure rate.
type Store struct {
	engine *vectordb.Engine
	log    *logger.Logger
	limit  int

	mu  sync.Mutex
	rng *rand.Rand

	closed atomic.Bool
}

var _ VectorStore = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) StoreOption {
	return func(s *Store) {
		s.log = l
	}
}

// WithDefaultLimit sets the limit used when a query does not set one.
func WithDefaultLimit(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewStore wraps engine. The partial-result sampler is seeded from the
// engine's seed so runs with a fixed seed are reproducible.
func NewStore(engine *vectordb.Engine, opts ...StoreOption) *Store {
	seed := engine.Config().Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &Store{
		engine: engine,
		log:    logger.Nop(),
		limit:  defaultLimit,
		rng:    rand.New(rand.NewPCG(seed, 3)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs query against the engine. Admission timeouts and cancellation
// are returned unchanged; failures the engine reports in its result come back
// as *SearchError.
func (s *Store) Search(ctx context.Context, query SearchQuery) (*SearchResult, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	limit := query.Limit
	if limit <= 0 {
		limit = s.limit
	}

	res, err := s.engine.Search(ctx, query.Text, limit, MetadataFilter(query.Filter))
	if err != nil {
		return nil, helpers.WrapError(err, "vector search")
	}
	if res.Failed() {
		return nil, &SearchError{Message: res.Error, LatencyMs: res.LatencyMs}
	}

	docs := make([]Document, 0, len(res.Documents))
	for i, d := range res.Documents {
		if res.Scores[i] < query.Threshold {
			continue
		}
		docs = append(docs, Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: d.Metadata,
			Score:    res.Scores[i],
			Created:  d.CreatedAt,
		})
	}

	out := &SearchResult{
		Query:     query.Text,
		Threshold: query.Threshold,
		LatencyMs: res.LatencyMs,
		CacheHit:  res.CacheHit,
	}
	if s.truncate() {
		s.log.Debug(ctx, "partial result injected",
			logger.Attr("query", query.Text),
			logger.Attr("kept", len(docs)/2),
			logger.Attr("dropped", len(docs)-len(docs)/2),
		)
		docs = docs[:len(docs)/2]
		out.Partial = true
	}
	out.Documents = docs
	out.Total = len(docs)
	return out, nil
}

func (s *Store) truncate() bool {
	mode, rate := s.engine.FailureMode()
	if mode != vectordb.FailurePartialResult || rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < rate
}

// Store always fails with ErrReadOnly.
func (s *Store) Store(context.Context, []Document) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ErrReadOnly
}

// Delete always fails with ErrReadOnly.
func (s *Store) Delete(context.Context, []string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ErrReadOnly
}

// GetEmbedding returns the deterministic query embedding for text.
func (s *Store) GetEmbedding(ctx context.Context, text string) (EmbeddingVector, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := vectordb.EmbedQuery(text)
	vec := make(EmbeddingVector, len(e))
	for i, v := range e {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Health reports ErrClosed after Close and nil otherwise.
func (s *Store) Health(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// Close marks the store closed. The engine itself holds no resources.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
