// Package record persists finished summaries in a document-style collection
// and reads them back.
package record

import (
	"context"
	"errors"
	"regexp"
)

// Record is one persisted summary.
type Record struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

// Draft is a Record before an ID has been assigned.
type Draft struct {
	Filename   string
	Transcript string
	Summary    string
}

// Ack is the store's acknowledgement of a write.
type Ack struct {
	ID           int64  `json:"id"`
	Collection   string `json:"collection"`
	RowsAffected int64  `json:"rows_affected"`
}

// ContainerInfo describes the collection.
type ContainerInfo struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
	Backend  string `json:"backend"`
}

// Errors.
var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID is returned when an ID is already taken.
	ErrDuplicateID = errors.New("duplicate record id")
	// ErrInvalidCollection is returned for collection names that are not
	// plain identifiers.
	ErrInvalidCollection = errors.New("invalid collection name")
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "summaries"

var collectionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidCollection reports whether name can be used as a collection name.
func ValidCollection(name string) bool {
	return collectionPattern.MatchString(name)
}

// Store is the port implemented by each backend. A Store is bound to a single
// collection at construction time.
type Store interface {
	// Insert writes rec and returns the number of rows affected.
	// Returns ErrDuplicateID if rec.ID is already present.
	Insert(ctx context.Context, rec Record) (int64, error)
	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id int64) (Record, error)
	// Scan returns every record in the collection.
	Scan(ctx context.Context) ([]Record, error)
	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int64, error)
	// Collection returns the collection name.
	Collection() string
	// Backend returns a short backend name, e.g. "sqlite".
	Backend() string
	// Close releases the backend's resources.
	Close() error
}
