package vectordb

import (
	"math"
	"slices"
)

// SearchEngine ranks an immutable document index against query embeddings.
// It is safe for concurrent use because the index is never written.
type SearchEngine struct {
	docs []VectorDocument
}

// NewSearchEngine creates a search engine over docs. The slice is retained
// and must not be modified by the caller afterwards.
func NewSearchEngine(docs []VectorDocument) *SearchEngine {
	return &SearchEngine{docs: docs}
}

type scoredDoc struct {
	doc   VectorDocument
	score float64
}

// Search returns up to topK documents ordered by descending cosine
// similarity. Ties keep index insertion order. Documents rejected by filter
// are skipped; a smaller candidate set simply yields fewer results.
func (s *SearchEngine) Search(query Embedding, topK int, filter Filter) ([]VectorDocument, []float64) {
	if topK <= 0 {
		return []VectorDocument{}, []float64{}
	}

	candidates := make([]scoredDoc, 0, len(s.docs))
	for _, doc := range s.docs {
		if filter != nil && !filter(doc) {
			continue
		}
		candidates = append(candidates, scoredDoc{doc: doc, score: CosineSimilarity(query, doc.Embedding)})
	}

	slices.SortStableFunc(candidates, func(a, b scoredDoc) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	n := min(topK, len(candidates))
	docs := make([]VectorDocument, n)
	scores := make([]float64, n)
	for i := range n {
		docs[i] = candidates[i].doc
		scores[i] = candidates[i].score
	}
	return docs, scores
}

// Len returns the number of indexed documents.
func (s *SearchEngine) Len() int {
	return len(s.docs)
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|), or 0 when either norm is zero.
func CosineSimilarity(a, b Embedding) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
