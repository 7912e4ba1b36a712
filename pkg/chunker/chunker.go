// Package chunker splits document text into overlapping chunks sized for
// embedding.
package chunker

import "strings"

// Defaults tuned for the embedding models used by the pipeline.
const (
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// Normalize collapses runs of whitespace into single spaces and trims the
// result, matching how ingested document text is cleaned before chunking.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Chunk splits text into chunks of at most size characters, with each
// chunk sharing overlap characters with its predecessor. Non-positive
// size falls back to DefaultSize; an overlap outside [0, size) falls back
// to DefaultOverlap, or 0 when even that would not fit. Empty input yields
// no chunks.
func Chunk(text string, size, overlap int) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = 0
		}
	}

	step := size - overlap

	// Slice on runes, not bytes, so multi-byte characters are never split
	// across a chunk boundary.
	runes := []rune(text)

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}
