package generate

import "errors"

var (
	// ErrModelUnavailable is returned when the generation model cannot be
	// reached or loaded.
	ErrModelUnavailable = errors.New("generation model unavailable")

	// ErrGeneration is returned when inference fails on a valid prompt.
	ErrGeneration = errors.New("generation failed")
)
