// Package registry owns the process-wide model instances used for
// embedding and generation. Models are loaded lazily on first use and
// shared for the life of the process.
package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/embeddings"
	"github.com/amategeko/gazette/pkg/generate"
)

// EmbedderFactory constructs the embedding model on first use.
type EmbedderFactory func() (embeddings.Embedder, error)

// GeneratorFactory constructs the generation model on first use.
type GeneratorFactory func() (generate.Generator, error)

// ModelRegistry lazily initializes the embedding and generation models
// with single-flight semantics: concurrent first calls share one load, and
// a successful load is reused for every subsequent call.
type ModelRegistry struct {
	newEmbedder  EmbedderFactory
	newGenerator GeneratorFactory
	logger       *zap.Logger

	embedOnce sync.Once
	embedder  embeddings.Embedder
	embedErr  error

	genOnce   sync.Once
	generator generate.Generator
	genErr    error
}

// NewModelRegistry creates a registry. Neither model is loaded until the
// first Embedder or Generator call.
func NewModelRegistry(newEmbedder EmbedderFactory, newGenerator GeneratorFactory, logger *zap.Logger) *ModelRegistry {
	return &ModelRegistry{
		newEmbedder:  newEmbedder,
		newGenerator: newGenerator,
		logger:       logger,
	}
}

// Embedder returns the shared embedding model, loading it on first call.
// A failed load is sticky: the error is returned to every caller without
// re-attempting the load.
func (r *ModelRegistry) Embedder() (embeddings.Embedder, error) {
	r.embedOnce.Do(func() {
		r.logger.Info("loading embedding model")
		r.embedder, r.embedErr = r.newEmbedder()
		if r.embedErr != nil {
			r.logger.Error("embedding model load failed", zap.Error(r.embedErr))
		}
	})
	return r.embedder, r.embedErr
}

// Generator returns the shared generation model, loading it on first call.
func (r *ModelRegistry) Generator() (generate.Generator, error) {
	r.genOnce.Do(func() {
		r.logger.Info("loading generation model")
		r.generator, r.genErr = r.newGenerator()
		if r.genErr != nil {
			r.logger.Error("generation model load failed", zap.Error(r.genErr))
		}
	})
	return r.generator, r.genErr
}

// Embed is a convenience wrapper that resolves the embedder and embeds text.
func (r *ModelRegistry) Embed(ctx context.Context, text string) ([]float32, error) {
	embedder, err := r.Embedder()
	if err != nil {
		return nil, err
	}
	return embedder.Embed(ctx, text)
}

// Close releases whichever models were actually loaded.
func (r *ModelRegistry) Close() error {
	var firstErr error
	if r.embedder != nil {
		if err := r.embedder.Close(); err != nil {
			firstErr = err
		}
	}
	if r.generator != nil {
		if err := r.generator.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
