package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps one collection in one SQLite table.
type SQLiteStore struct {
	conn       *sql.DB
	collection string
	table      string
	logger     *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and makes
// sure the collection table exists.
func NewSQLiteStore(ctx context.Context, dbPath, collection string, logger *slog.Logger) (*SQLiteStore, error) {
	if !ValidCollection(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{
		conn:       conn,
		collection: collection,
		table:      `"` + collection + `"`,
		logger:     logger,
	}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	logger.Info("sqlite store ready", "path", dbPath, "collection", collection)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	// #nosec G201 - table name is validated against collectionPattern
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         INTEGER NOT NULL UNIQUE,
		filename   TEXT NOT NULL,
		transcript TEXT NOT NULL,
		summary    TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
	)`, s.table)
	_, err := s.conn.ExecContext(ctx, query)
	return err
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) (int64, error) {
	// #nosec G201 - table name is validated against collectionPattern
	query := fmt.Sprintf("INSERT INTO %s (id, filename, transcript, summary) VALUES (?, ?, ?, ?)", s.table)
	res, err := s.conn.ExecContext(ctx, query, rec.ID, rec.Filename, rec.Transcript, rec.Summary)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			s.logger.Warn("sqlite insert rejected duplicate id",
				"collection", s.collection,
				"id", rec.ID,
			)
			return 0, fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
		}
		return 0, err
	}
	return res.RowsAffected()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (Record, error) {
	// #nosec G201 - table name is validated against collectionPattern
	query := fmt.Sprintf("SELECT id, filename, transcript, summary FROM %s WHERE id = ?", s.table)
	var rec Record
	err := s.conn.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Filename, &rec.Transcript, &rec.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Scan implements Store. Records come back in insertion order.
func (s *SQLiteStore) Scan(ctx context.Context) ([]Record, error) {
	// #nosec G201 - table name is validated against collectionPattern
	query := fmt.Sprintf("SELECT id, filename, transcript, summary FROM %s ORDER BY seq", s.table)
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Transcript, &rec.Summary); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	// #nosec G201 - table name is validated against collectionPattern
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	var n int64
	err := s.conn.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

// Collection implements Store.
func (s *SQLiteStore) Collection() string { return s.collection }

// Backend implements Store.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.logger.Info("sqlite store closed", "collection", s.collection)
	return nil
}
