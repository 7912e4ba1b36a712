package embeddings

import "errors"

var (
	// ErrModelUnavailable is returned when the embedding model cannot be
	// reached or loaded.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrEmbedding is returned when inference fails on otherwise valid input.
	ErrEmbedding = errors.New("embedding failed")

	// ErrEmptyText is returned when the input is empty after trimming.
	// Callers are expected to validate input before spending a model call.
	ErrEmptyText = errors.New("text is empty")
)
