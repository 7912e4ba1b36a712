package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// PostgresStore implements Store on PostgreSQL, for deployments that
// already run Postgres for the pgvector document store.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore connects to Postgres and ensures the history table
// exists.
func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if connStr == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS history (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			source TEXT NOT NULL CHECK (source IN ('database', 'web')),
			created_at TIMESTAMPTZ DEFAULT now() NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history table: %w", err)
	}

	logger.Info("postgres history store initialized")

	return &PostgresStore{db: db, logger: logger}, nil
}

// Record appends an exchange.
func (s *PostgresStore) Record(ctx context.Context, ex Exchange) error {
	if !ValidSource(ex.Source) {
		return fmt.Errorf("%w: %q", ErrInvalidSource, ex.Source)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (question, answer, source) VALUES ($1, $2, $3)`,
		ex.Question, ex.Answer, string(ex.Source),
	)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}

	return nil
}

// List returns all exchanges, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]Exchange, error) {
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ensure PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)
