package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresStore keeps one collection in one PostgreSQL table.
type PostgresStore struct {
	pool       *pgxpool.Pool
	collection string
	table      string
}

// NewPostgresStore connects to databaseURL and makes sure the collection
// table exists.
func NewPostgresStore(ctx context.Context, databaseURL, collection string, logger *slog.Logger) (*PostgresStore, error) {
	if !ValidCollection(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{
		pool:       pool,
		collection: collection,
		table:      pgx.Identifier{collection}.Sanitize(),
	}

	// #nosec G201 - table name is sanitized by pgx.Identifier
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq        BIGSERIAL PRIMARY KEY,
		id         BIGINT NOT NULL UNIQUE,
		filename   TEXT NOT NULL,
		transcript TEXT NOT NULL,
		summary    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	logger.Info("postgres store ready", "collection", collection)
	return s, nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, rec Record) (int64, error) {
	// #nosec G201 - table name is sanitized by pgx.Identifier
	query := fmt.Sprintf("INSERT INTO %s (id, filename, transcript, summary) VALUES ($1, $2, $3, $4)", s.table)
	tag, err := s.pool.Exec(ctx, query, rec.ID, rec.Filename, rec.Transcript, rec.Summary)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id int64) (Record, error) {
	// #nosec G201 - table name is sanitized by pgx.Identifier
	query := fmt.Sprintf("SELECT id, filename, transcript, summary FROM %s WHERE id = $1", s.table)
	var rec Record
	err := s.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.Filename, &rec.Transcript, &rec.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Scan implements Store. Records come back in insertion order.
func (s *PostgresStore) Scan(ctx context.Context) ([]Record, error) {
	// #nosec G201 - table name is sanitized by pgx.Identifier
	query := fmt.Sprintf("SELECT id, filename, transcript, summary FROM %s ORDER BY seq", s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		err := row.Scan(&rec.ID, &rec.Filename, &rec.Transcript, &rec.Summary)
		return rec, err
	})
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	// #nosec G201 - table name is sanitized by pgx.Identifier
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	var n int64
	err := s.pool.QueryRow(ctx, query).Scan(&n)
	return n, err
}

// Collection implements Store.
func (s *PostgresStore) Collection() string { return s.collection }

// Backend implements Store.
func (s *PostgresStore) Backend() string { return "postgres" }

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
