// Package generate builds grounding prompts, invokes a text generation
// model, and deterministically cleans the raw model output into a short,
// disclaimer-suffixed answer.
package generate

import "context"

// Generator produces free text from a prompt.
type Generator interface {
	// Generate runs one bounded inference call and returns the raw output.
	Generate(ctx context.Context, prompt string) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}
