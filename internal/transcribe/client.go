// Package transcribe provides a speech-to-text client for extracted audio
// tracks, backed by an OpenAI-compatible transcription endpoint.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/maauso/video-summarizer/internal/failure"
)

// ErrAPIKeyNotSet is returned when no API key is given and the
// OPENAI_API_KEY environment variable is not set.
var ErrAPIKeyNotSet = errors.New("transcribe: OPENAI_API_KEY environment variable is not set")

// DefaultModel is the transcription model used when none is configured.
const DefaultModel = openai.Whisper1

// Transcriber turns an audio file into plain text.
type Transcriber interface {
	// Transcribe streams the file at audioPath to the speech-to-text
	// service and returns the transcript. It makes a single attempt.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Client is the OpenAI implementation of Transcriber.
type Client struct {
	api        *openai.Client
	model      string
	language   string
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL, e.g. for an OpenAI-compatible gateway.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithModel sets the transcription model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLanguage sets an ISO-639-1 language hint.
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		c.language = lang
	}
}

// NewClient creates a new transcription client.
// If apiKey is empty, it is read from the environment variable OPENAI_API_KEY.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}

	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	cfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cfg.HTTPClient = c.httpClient
	c.api = openai.NewClientWithConfig(cfg)

	return c, nil
}

// Transcribe implements Transcriber.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath) // #nosec G304 - path is produced by the audio extractor
	if err != nil {
		return "", fmt.Errorf("%w: open audio: %w", failure.ErrTranscription, err)
	}
	defer func() { _ = f.Close() }()

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: filepath.Base(audioPath),
		Reader:   f,
		Format:   openai.AudioResponseFormatText,
		Language: c.language,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", failure.ErrTranscription, err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Compile-time check that Client implements Transcriber.
var _ Transcriber = (*Client)(nil)
