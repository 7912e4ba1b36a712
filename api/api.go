package api

import (
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for asking questions and managing documents.
type Server struct {
	config Config
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. Collaborators beyond the answerer are
// optional; endpoints whose collaborator is missing respond 503.
func NewServer(config Config, logger *zap.Logger) (*Server, error) {
	if config.Answerer == nil {
		return nil, errors.New("answerer is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/ask", s.handleAsk)
	app.Post("/v1/documents/query", s.handleQueryDocuments)
	app.Get("/v1/documents", s.handleListDocuments)
	app.Put("/v1/documents/:id", s.handleUpsertDocument)
	app.Delete("/v1/documents/:id", s.handleDeleteDocument)
	app.Get("/v1/history", s.handleHistory)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
