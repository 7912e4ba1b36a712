// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities.
//
// Embeddings are deterministic: embedding the same text twice yields the
// same vector, and every vector produced by one Embedder shares the same
// dimensionality. Similarity comparisons across vectors are only meaningful
// when all of them came from the same Embedder configuration.
type Embedder interface {
	// Embed converts text into a vector embedding. Text must be non-empty
	// after trimming; ErrEmptyText is returned otherwise.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
