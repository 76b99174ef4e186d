// Package retrieval exposes the simulated vector database through the
// VectorStore interface used by retrieval pipelines.
package retrieval

import (
	"context"
	"time"
)

// Document is a retrieved document with its similarity score.
type Document struct {
	ID       string         `json:"id" yaml:"id"`                                 // Unique document identifier
	Content  string         `json:"content" yaml:"content"`                       // Document text content
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"` // Additional document metadata
	Score    float64        `json:"score" yaml:"score"`                           // Cosine similarity to the query
	Created  time.Time      `json:"created" yaml:"created"`                       // Document creation timestamp
}

// SearchResult is the outcome of a VectorStore search.
type SearchResult struct {
	Documents []Document `json:"documents" yaml:"documents"`   // Matching documents ranked by score
	Query     string     `json:"query" yaml:"query"`           // Original search query
	Total     int        `json:"total" yaml:"total"`           // Number of documents returned
	Threshold float64    `json:"threshold" yaml:"threshold"`   // Similarity threshold used
	LatencyMs float64    `json:"latency_ms" yaml:"latency_ms"` // Latency reported by the engine
	CacheHit  bool       `json:"cache_hit" yaml:"cache_hit"`   // Served from the engine cache
	Partial   bool       `json:"partial" yaml:"partial"`       // Truncated by partial-result injection
}

// EmbeddingVector represents a vector embedding.
type EmbeddingVector []float32

// SearchQuery represents a vector search query.
type SearchQuery struct {
	Text      string         `json:"text"`             // Query text
	Threshold float64        `json:"threshold"`        // Minimum similarity score
	Limit     int            `json:"limit,omitempty"`  // Maximum results to return
	Filter    map[string]any `json:"filter,omitempty"` // Metadata equality filters
}

// VectorStore interface for vector database operations.
//
// Example:
//
//	store := retrieval.NewStore(engine)
//	res, err := store.Search(ctx, retrieval.SearchQuery{Text: "retry budgets", Limit: 5})
type VectorStore interface {
	// Search performs similarity search against the vector database
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)

	// Store adds documents to the vector database
	Store(ctx context.Context, documents []Document) error

	// Delete removes documents from the vector database
	Delete(ctx context.Context, ids []string) error

	// GetEmbedding generates embeddings for text content
	GetEmbedding(ctx context.Context, text string) (EmbeddingVector, error)

	// Health checks if the vector store is available
	Health(ctx context.Context) error

	// Close releases any resources held by the client
	Close() error
}
