package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Store drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for unrecognised drivers.
var ErrUnknownDriver = errors.New("unknown store driver")

// OpenConfig selects and configures a Store backend.
type OpenConfig struct {
	Driver      string
	Collection  string
	SQLitePath  string
	DatabaseURL string
}

// Open builds the Store named by cfg.Driver.
func Open(ctx context.Context, cfg OpenConfig, logger *slog.Logger) (Store, error) {
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(collection)
	case DriverSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, collection, logger)
	case DriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, collection, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
