package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/video-summarizer/internal/failure"
)

// Policy decides what the Encoder does with files that do not follow the
// frame naming convention. A deployment picks one; they are never mixed.
type Policy string

const (
	// PolicySkip drops non-matching files from the result.
	PolicySkip Policy = "skip"
	// PolicyStrict fails the whole call on the first non-matching file.
	PolicyStrict Policy = "strict"
)

// ErrUnknownPolicy is returned by ParsePolicy for unrecognised values.
var ErrUnknownPolicy = errors.New("unknown frame policy")

// ErrEmptyFrame is returned when a frame file has no content.
var ErrEmptyFrame = errors.New("empty frame file")

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicySkip, PolicyStrict:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// DefaultEncodeConcurrency is the number of frames read in parallel.
const DefaultEncodeConcurrency = 4

// Encoder turns sampled frame files into base64 payloads.
type Encoder struct {
	policy      Policy
	concurrency int
	logger      *slog.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithConcurrency bounds the number of frames read in parallel.
func WithConcurrency(n int) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithEncoderLogger sets the logger.
func WithEncoderLogger(logger *slog.Logger) EncoderOption {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEncoder creates an Encoder. An empty policy means PolicySkip.
func NewEncoder(policy Policy, opts ...EncoderOption) *Encoder {
	if policy == "" {
		policy = PolicySkip
	}
	e := &Encoder{
		policy:      policy,
		concurrency: DefaultEncodeConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured policy.
func (e *Encoder) Policy() Policy {
	return e.policy
}

// Encode returns one base64 payload per frame file in paths, ordered by
// frame sequence number. Files are read concurrently; the result slot of
// each file is fixed before reading starts, so completion order does not
// matter.
func (e *Encoder) Encode(ctx context.Context, paths []string) ([]string, error) {
	frames := make([]string, 0, len(paths))
	for _, path := range paths {
		if IsFramePath(path) {
			frames = append(frames, path)
			continue
		}
		if e.policy == PolicyStrict {
			return nil, fmt.Errorf("%w: %q is not a frame file", failure.ErrValidation, filepath.Base(path))
		}
		e.logger.Debug("skipping non-frame file", slog.String("path", path))
	}
	SortFrames(frames)

	payloads := make([]string, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			payload, err := EncodeFile(path)
			if err != nil {
				return err
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return payloads, nil
}

// EncodeFile reads a file fully and returns its standard base64 encoding.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the sampler's output dir
	if err != nil {
		return "", fmt.Errorf("%w: read frame: %w", failure.ErrIO, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %w: %s", failure.ErrIO, ErrEmptyFrame, path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
