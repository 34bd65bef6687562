// Package embeddings defines the text-embedding contract the fuzzy
// duplicate matcher depends on.
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedding is returned when embedding generation fails. Callers
// treat it as "fuzzy check skipped", never as fatal.
var ErrEmbedding = errors.New("embedding failed")

// Embedder maps text to a fixed-length vector. Construct once at
// process start and inject the handle; implementations must be safe
// for concurrent use.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
