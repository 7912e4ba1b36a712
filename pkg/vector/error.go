package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrRetrieval is returned on connectivity or query failure against the
	// vector store. No retries happen inside a driver.
	ErrRetrieval = errors.New("vector store retrieval failed")
)
