// Package history records question/answer exchanges for later review.
package history

import (
	"context"
	"errors"
	"time"
)

// Source labels where the answer's context came from.
type Source string

const (
	// SourceDatabase marks answers grounded in stored documents.
	SourceDatabase Source = "database"

	// SourceWeb marks answers grounded in a web search fallback.
	SourceWeb Source = "web"
)

// ErrInvalidSource is returned when recording an exchange with a source
// outside the known set.
var ErrInvalidSource = errors.New("invalid exchange source")

// Exchange is one recorded question/answer pair.
type Exchange struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists exchanges. Implementations must return exchanges newest
// first from List.
type Store interface {
	Record(ctx context.Context, ex Exchange) error
	List(ctx context.Context) ([]Exchange, error)
	Close() error
}

// ValidSource reports whether s is a known source label.
func ValidSource(s Source) bool {
	return s == SourceDatabase || s == SourceWeb
}
