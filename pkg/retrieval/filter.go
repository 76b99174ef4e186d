package retrieval

import (
	"fmt"

	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

// MetadataFilter returns a filter accepting documents whose metadata holds
// every key of want with an equal value. Numbers compare by value regardless
// of their Go type, so a filter decoded from JSON matches int metadata.
// An empty want returns nil, which the engine treats as match-all.
func MetadataFilter(want map[string]any) vectordb.Filter {
	if len(want) == 0 {
		return nil
	}
	return func(doc vectordb.VectorDocument) bool {
		for k, v := range want {
			got, ok := doc.Metadata[k]
			if !ok || !valuesEqual(got, v) {
				return false
			}
		}
		return true
	}
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
