package vectordb

import "crypto/sha512"

// Dimensions is the fixed length of every pseudo-embedding.
const Dimensions = 64

// Embedding is a fixed-length pseudo-embedding.
type Embedding [Dimensions]float64

// Embed derives a deterministic pseudo-embedding from id and content.
//
// The SHA-512 digest of "id:content" is exactly 64 bytes; each byte maps to
// b/255 so every component lies in [0, 1]. The output is bit-identical across
// calls and process restarts.
func Embed(id, content string) Embedding {
	sum := sha512.Sum512([]byte(id + ":" + content))

	var e Embedding
	for i, b := range sum {
		e[i] = float64(b) / 255
	}
	return e
}

// EmbedQuery embeds a query string.
func EmbedQuery(query string) Embedding {
	return Embed("query", query)
}
