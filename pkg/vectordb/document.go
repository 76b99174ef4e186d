package vectordb

import "time"

// VectorDocument is one entry of the engine's document index.
//
// Documents are created once when the engine is built and never modified
// afterwards; callers must treat Metadata as read-only.
type VectorDocument struct {
	ID        string         `json:"id" yaml:"id"`
	Content   string         `json:"content" yaml:"content"`
	Embedding Embedding      `json:"-" yaml:"-"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

// Filter reports whether a document may appear in a result. A nil Filter
// matches every document.
type Filter func(doc VectorDocument) bool

// RetrievalResult is the outcome of one search call.
//
// A non-empty Error marks an injected or unexpected failure; Documents is
// then empty.
type RetrievalResult struct {
	Documents []VectorDocument `json:"documents" yaml:"documents"`             // At most topK, score-descending
	Scores    []float64        `json:"scores" yaml:"scores"`                   // Cosine score per document
	LatencyMs float64          `json:"latency_ms" yaml:"latency_ms"`           // Observed call latency
	CacheHit  bool             `json:"cache_hit" yaml:"cache_hit"`             // Served from the response cache
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"` // Injected or unexpected failure
}

// Failed reports whether the result carries an error.
func (r *RetrievalResult) Failed() bool {
	return r.Error != ""
}

// clone returns a copy whose slices can be handed to a caller without
// exposing cache-owned backing arrays.
func (r *RetrievalResult) clone() *RetrievalResult {
	c := *r
	c.Documents = append([]VectorDocument(nil), r.Documents...)
	c.Scores = append([]float64(nil), r.Scores...)
	return &c
}
