// Package vector provides interfaces and implementations for vector storage
// and similarity retrieval over embedded law documents.
package vector

import "context"

// Document represents a stored law or document chunk with its embedding.
type Document struct {
	// ID is a unique identifier for the document.
	ID string

	// Title is the optional human-readable title (e.g., a law's name or a
	// source filename). May be empty for anonymous chunks.
	Title string

	// Content is the document text.
	Content string

	// Embedding is the vector representation of Content. Every embedding
	// stored in one driver instance must share the driver's configured
	// dimensionality and must come from the same embedder configuration.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score is the similarity to the query vector, defined as 1 - distance
	// under the store's cosine metric (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of embedded documents.
type Driver interface {
	// Add stores documents with their embeddings. A document with an
	// existing ID is updated in place.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding,
	// ordered by descending similarity. An empty store or topK <= 0 yields
	// an empty result, not an error. Connectivity and query failures are
	// reported as ErrRetrieval; retry policy belongs to the caller.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// List returns every stored document, newest first, without embeddings.
	List(ctx context.Context) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
