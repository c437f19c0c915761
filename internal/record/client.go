package record

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/maauso/video-summarizer/internal/failure"
)

// MaxID is the largest generated ID, 2^53-1, so IDs survive a round trip
// through JSON numbers.
const MaxID = 1<<53 - 1

// NewID returns a random ID in [1, MaxID].
func NewID() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxID))
	if err != nil {
		return 0, err
	}
	return n.Int64() + 1, nil
}

// Client writes and reads summary records through a Store.
type Client struct {
	store  Store
	newID  func() (int64, error)
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithIDSource replaces the random ID generator.
func WithIDSource(fn func() (int64, error)) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client on top of store.
func NewClient(store Store, opts ...ClientOption) *Client {
	c := &Client{
		store:  store,
		newID:  NewID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save assigns a fresh ID to d and writes it. Writers do not coordinate, so
// an ID collision surfaces as a persistence failure.
func (c *Client) Save(ctx context.Context, d Draft) (Ack, error) {
	id, err := c.newID()
	if err != nil {
		return Ack{}, fmt.Errorf("%w: generate id: %w", failure.ErrPersistence, err)
	}

	rec := Record{
		ID:         id,
		Filename:   d.Filename,
		Transcript: d.Transcript,
		Summary:    d.Summary,
	}
	rows, err := c.store.Insert(ctx, rec)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: insert into %s: %w", failure.ErrPersistence, c.store.Collection(), err)
	}

	c.logger.Info("record saved",
		"id", id,
		"collection", c.store.Collection(),
		"backend", c.store.Backend(),
	)

	return Ack{ID: id, Collection: c.store.Collection(), RowsAffected: rows}, nil
}

// GetByID returns the record with the given ID. A missing record yields
// ErrNotFound unwrapped, so callers can tell it apart from store failures.
func (c *Client) GetByID(ctx context.Context, id int64) (Record, error) {
	rec, err := c.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: get %d: %w", failure.ErrPersistence, id, err)
	}
	return rec, nil
}

// GetAll returns every record in the collection.
func (c *Client) GetAll(ctx context.Context) ([]Record, error) {
	recs, err := c.store.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", failure.ErrPersistence, c.store.Collection(), err)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// Info describes the collection.
func (c *Client) Info(ctx context.Context) (ContainerInfo, error) {
	n, err := c.store.Count(ctx)
	if err != nil {
		return ContainerInfo{}, fmt.Errorf("%w: count %s: %w", failure.ErrPersistence, c.store.Collection(), err)
	}
	return ContainerInfo{
		Name:     c.store.Collection(),
		RowCount: n,
		Backend:  c.store.Backend(),
	}, nil
}

// Close closes the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}
