// Package api provides the HTTP API server for asking questions and
// managing the document store.
package api

import (
	"net/http"

	"github.com/amategeko/gazette/pkg/answer"
	"github.com/amategeko/gazette/pkg/history"
	"github.com/amategeko/gazette/pkg/registry"
	"github.com/amategeko/gazette/pkg/vector"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Answerer runs the question pipeline for /v1/ask. Required.
	Answerer *answer.Answerer

	// Documents is the uploaded-documents store backing /v1/documents.
	// Optional; document endpoints return 503 when nil.
	Documents vector.Driver

	// DocsAnswerer answers /v1/documents/query against the uploaded-documents
	// store. Optional; the endpoint returns 503 when nil.
	DocsAnswerer *answer.Answerer

	// Models provides the embedder for re-embedding on document upsert.
	// Optional; PUT /v1/documents/:id returns 503 when nil.
	Models *registry.ModelRegistry

	// History is the exchange history store for /v1/history.
	// Optional; the endpoint returns 503 when nil.
	History history.Store

	// MCPHandler, when set, is mounted at /mcp.
	MCPHandler http.Handler
}
