package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/answer"
	"github.com/amategeko/gazette/pkg/chunker"
	"github.com/amategeko/gazette/pkg/vector"
)

// AskRequest is the body for POST /v1/ask.
type AskRequest struct {
	Question string `json:"question"`
	// Mode selects the pipeline: hybrid (default), live, or dbonly.
	Mode string `json:"mode,omitempty"`
}

// QueryDocumentsRequest is the body for POST /v1/documents/query.
type QueryDocumentsRequest struct {
	Question string `json:"question"`
}

// DocumentResponse is one stored document as returned by the documents
// endpoints. Embeddings are never serialized.
type DocumentResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// UpsertDocumentRequest is the body for PUT /v1/documents/:id.
type UpsertDocumentRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAsk runs the question pipeline and returns the answer with its
// supporting documents.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	mode := answer.ModeHybrid
	if req.Mode != "" {
		mode = answer.Mode(req.Mode)
	}

	result, err := s.config.Answerer.Answer(c.Context(), req.Question, mode)
	if err != nil {
		if errors.Is(err, answer.ErrUnknownMode) || errors.Is(err, answer.ErrEmptyQuestion) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("ask failed",
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to answer question"})
	}

	return c.JSON(result)
}

// handleQueryDocuments answers a question against the uploaded-documents
// store only, with the web lookup as last resort.
func (s *Server) handleQueryDocuments(c *fiber.Ctx) error {
	if s.config.DocsAnswerer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "document querying is not configured",
		})
	}

	var req QueryDocumentsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	result, err := s.config.DocsAnswerer.Answer(c.Context(), req.Question, answer.ModeDBOnly)
	if err != nil {
		s.logger.Error("document query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to answer question"})
	}

	return c.JSON(result)
}

// handleListDocuments returns every stored document, newest first.
func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	if s.config.Documents == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "document store is not configured",
		})
	}

	docs, err := s.config.Documents.List(c.Context())
	if err != nil {
		s.logger.Error("failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list documents"})
	}

	out := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		out[i] = DocumentResponse{ID: doc.ID, Title: doc.Title, Content: doc.Content}
	}

	return c.JSON(map[string]any{
		"count":     len(out),
		"documents": out,
	})
}

// handleUpsertDocument re-embeds the given content and upserts it under the
// given ID.
func (s *Server) handleUpsertDocument(c *fiber.Ctx) error {
	if s.config.Documents == nil || s.config.Models == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "document store is not configured",
		})
	}

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	var req UpsertDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	content := chunker.Normalize(req.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "content is required"})
	}

	embedding, err := s.config.Models.Embed(c.Context(), content)
	if err != nil {
		s.logger.Error("failed to embed document",
			zap.String("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to embed document"})
	}

	doc := vector.Document{
		ID:        id,
		Title:     strings.TrimSpace(req.Title),
		Content:   content,
		Embedding: embedding,
	}
	if err := s.config.Documents.Add(c.Context(), []vector.Document{doc}); err != nil {
		s.logger.Error("failed to store document",
			zap.String("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to store document"})
	}

	return c.JSON(DocumentResponse{ID: doc.ID, Title: doc.Title, Content: doc.Content})
}

// handleDeleteDocument removes a document by ID.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	if s.config.Documents == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "document store is not configured",
		})
	}

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	if err := s.config.Documents.Delete(c.Context(), []string{id}); err != nil {
		s.logger.Error("failed to delete document",
			zap.String("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete document"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleHistory returns recorded exchanges, newest first.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.config.History == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "history is not configured",
		})
	}

	exchanges, err := s.config.History.List(c.Context())
	if err != nil {
		s.logger.Error("failed to list history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list history"})
	}

	return c.JSON(map[string]any{
		"count":     len(exchanges),
		"exchanges": exchanges,
	})
}
