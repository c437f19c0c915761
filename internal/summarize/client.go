// Package summarize asks a multimodal chat model for a Markdown summary of a
// video given its sampled frames and audio transcript.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/maauso/video-summarizer/internal/failure"
)

// Errors.
var (
	// ErrAPIKeyNotSet is returned when no API key is given and the
	// OPENAI_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("summarize: OPENAI_API_KEY environment variable is not set")
	// ErrNoChoices is returned when the service answers with zero choices.
	ErrNoChoices = errors.New("response contained no choices")
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = openai.GPT4o

// Summarizer produces a summary from encoded frames and a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, frames []string, transcript string) (string, error)
}

// Client is the OpenAI implementation of Summarizer.
type Client struct {
	api        *openai.Client
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
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

// WithModel sets the chat model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
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

// NewClient creates a new summarization client.
// If apiKey is empty, it is read from the environment variable OPENAI_API_KEY.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		logger:     slog.Default(),
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

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

// Summarize sends every frame in a single request and returns the content of
// the first choice.
func (c *Client) Summarize(ctx context.Context, frames []string, transcript string) (string, error) {
	req := BuildRequest(c.model, frames, transcript)

	c.logger.Debug("requesting summary",
		"model", c.model,
		"frames", len(frames),
		"transcript_len", len(transcript),
	)

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", failure.ErrSummarization, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", failure.ErrSummarization, ErrNoChoices)
	}

	c.logger.Debug("summary received",
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
	)

	return resp.Choices[0].Message.Content, nil
}

// Compile-time check that Client implements Summarizer.
var _ Summarizer = (*Client)(nil)
