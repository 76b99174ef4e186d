package retrieval

import (
	"testing"

	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

func TestMetadataFilter(t *testing.T) {
	t.Parallel()

	doc := vectordb.VectorDocument{
		ID: "doc_4",
		Metadata: map[string]any{
			"category": "tutorial",
			"index":    4,
			"topic":    "caching",
		},
	}

	tests := []struct {
		name string
		want map[string]any
		ok   bool
	}{
		{name: "string match", want: map[string]any{"category": "tutorial"}, ok: true},
		{name: "all keys match", want: map[string]any{"category": "tutorial", "topic": "caching"}, ok: true},
		{name: "one key differs", want: map[string]any{"category": "tutorial", "topic": "routing"}},
		{name: "missing key", want: map[string]any{"owner": "ops"}},
		{name: "int as float", want: map[string]any{"index": 4.0}, ok: true},
		{name: "int as int64", want: map[string]any{"index": int64(4)}, ok: true},
		{name: "number vs string", want: map[string]any{"index": "4"}},
	}

	for _, tt := range tests {
		if got := MetadataFilter(tt.want)(doc); got != tt.ok {
			t.Errorf("%s: filter() = %v, want %v", tt.name, got, tt.ok)
		}
	}

	if MetadataFilter(nil) != nil || MetadataFilter(map[string]any{}) != nil {
		t.Error("empty filter should be nil")
	}
}
