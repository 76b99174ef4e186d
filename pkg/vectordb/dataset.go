package vectordb

import (
	"fmt"
	"time"
)

var (
	datasetTopics     = []string{"retrieval", "routing", "chunking", "timeouts", "caching", "embeddings", "pipelines", "scheduling"}
	datasetCategories = []string{"technical", "operational", "research", "reference", "tutorial"}
	datasetPriorities = []string{"low", "medium", "high"}
)

// GenerateDocuments builds a deterministic synthetic corpus of n documents.
//
// Document i has ID "doc_<i>", content naming a topic, metadata with
// category, topic, priority and index, and an embedding from Embed. CreatedAt
// is set to now for every document.
func GenerateDocuments(n int, now time.Time) []VectorDocument {
	docs := make([]VectorDocument, 0, n)
	for i := range n {
		id := fmt.Sprintf("doc_%d", i)
		topic := datasetTopics[i%len(datasetTopics)]
		content := fmt.Sprintf("Document %d about %s", i, topic)

		docs = append(docs, VectorDocument{
			ID:        id,
			Content:   content,
			Embedding: Embed(id, content),
			Metadata: map[string]any{
				"category": datasetCategories[i%len(datasetCategories)],
				"topic":    topic,
				"priority": datasetPriorities[i%len(datasetPriorities)],
				"index":    i,
			},
			CreatedAt: now,
		})
	}
	return docs
}
