// Package vectorutils provides helpers to construct vector drivers from
// configuration.
package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/vector"
	"github.com/amategeko/gazette/pkg/vector/pgvector"
	"github.com/amategeko/gazette/pkg/vector/qdrant"
	"github.com/amategeko/gazette/pkg/vector/sqlitevec"
)

// NewDriverOpts carries the configuration needed to construct a vector
// driver of any supported type.
type NewDriverOpts struct {
	// DriverType selects the backend: "sqlite", "pgvector" or "qdrant".
	DriverType string

	// Target is the backend endpoint. For sqlite this is a file path, for
	// pgvector a connection string, for qdrant a "host:port" pair.
	Target string

	// Collection is the collection or table name. Optional, backends fall
	// back to their defaults.
	Collection string

	// Dimensions is the embedding vector width.
	Dimensions uint
}

// NewDriver constructs a vector driver based on the given options.
func NewDriver(ctx context.Context, opts NewDriverOpts, logger *zap.Logger) (vector.Driver, error) {
	switch opts.DriverType {
	case "sqlite":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     opts.Target,
			Dimensions: opts.Dimensions,
		}, logger)
	case "pgvector":
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnStr:    opts.Target,
			Table:      opts.Collection,
			Dimensions: opts.Dimensions,
		}, logger)
	case "qdrant":
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:     opts.Target,
			Collection: opts.Collection,
			Dimensions: opts.Dimensions,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported vector driver type: %q", opts.DriverType)
	}
}
