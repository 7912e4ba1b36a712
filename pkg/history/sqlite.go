package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore implements Store on a local SQLite file. It shares the
// single-file deployment mode with the sqlite-vec vector driver.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the history table at the given path.
// Use ":memory:" for an in-memory store.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			source TEXT NOT NULL CHECK (source IN ('database', 'web')),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history table: %w", err)
	}

	logger.Info("sqlite history store initialized", zap.String("path", path))

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Record appends an exchange.
func (s *SQLiteStore) Record(ctx context.Context, ex Exchange) error {
	if !ValidSource(ex.Source) {
		return fmt.Errorf("%w: %q", ErrInvalidSource, ex.Source)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (question, answer, source) VALUES (?, ?, ?)`,
		ex.Question, ex.Answer, string(ex.Source),
	)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}

	return nil
}

// List returns all exchanges, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, source, created_at
		FROM history
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var ex Exchange
		var source string
		if err := rows.Scan(&ex.ID, &ex.Question, &ex.Answer, &source, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		ex.Source = Source(source)
		exchanges = append(exchanges, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return exchanges, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
