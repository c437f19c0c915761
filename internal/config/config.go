// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
	"github.com/sethvargo/go-envconfig"
)

// ErrOpenAIAPIKeyRequired is returned when OPENAI_API_KEY is not set.
var ErrOpenAIAPIKeyRequired = errors.New("config: OPENAI_API_KEY is required")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port" validate:"gt=0,lte=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	MaxUploadMB    int64    `env:"MAX_UPLOAD_MB, default=2048" json:"max_upload_mb" validate:"gt=0"`

	// OpenAI-compatible API settings
	OpenAIAPIKey       string `env:"OPENAI_API_KEY, required" json:"-"` // Masked in JSON
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL" json:"openai_base_url,omitempty" validate:"omitempty,url"`
	SummaryModel       string `env:"SUMMARY_MODEL, default=gpt-4o" json:"summary_model" validate:"required"`
	TranscriptionModel string `env:"TRANSCRIPTION_MODEL, default=whisper-1" json:"transcription_model" validate:"required"`

	// Workspace settings
	WorkDir    string `env:"WORK_DIR, default=./data" json:"work_dir" validate:"required"`
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobe    string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Processing settings
	FrameIntervalSec  float64       `env:"FRAME_INTERVAL_SEC, default=2" json:"frame_interval_sec" validate:"gt=0"`
	FrameScale        float64       `env:"FRAME_SCALE, default=0.5" json:"frame_scale" validate:"gt=0,lte=1"`
	FramePolicy       string        `env:"FRAME_POLICY, default=skip" json:"frame_policy" validate:"oneof=skip strict"`
	EncodeConcurrency int           `env:"ENCODE_CONCURRENCY, default=4" json:"encode_concurrency" validate:"gt=0"`
	AudioBitrate      string        `env:"AUDIO_BITRATE, default=32k" json:"audio_bitrate" validate:"required"`
	StageTimeout      time.Duration `env:"STAGE_TIMEOUT, default=10m" json:"stage_timeout" validate:"gte=0"`
	JobQueueSize      int           `env:"JOB_QUEUE_SIZE, default=64" json:"job_queue_size" validate:"gt=0"`

	// Summary store settings
	StoreDriver string `env:"STORE_DRIVER, default=memory" json:"store_driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath  string `env:"SQLITE_PATH" json:"sqlite_path,omitempty"`
	DatabaseURL string `env:"DATABASE_URL" json:"-" validate:"required_if=StoreDriver postgres"` // Masked in JSON
	Collection  string `env:"COLLECTION, default=summaries" json:"collection" validate:"required"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=json text pretty"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"` // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// FramesDir is where sampled frames are written.
func (c *Config) FramesDir() string {
	return filepath.Join(c.WorkDir, "frames")
}

// AudioDir is where extracted audio is written.
func (c *Config) AudioDir() string {
	return filepath.Join(c.WorkDir, "audio")
}

// UploadDir is where uploaded videos are stored.
func (c *Config) UploadDir() string {
	return filepath.Join(c.WorkDir, "uploads")
}

// SQLiteFile returns SQLITE_PATH, defaulting to a file under the work dir.
func (c *Config) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.WorkDir, "summaries.db")
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	return load(context.Background(), envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		if strings.Contains(err.Error(), "OPENAI_API_KEY") {
			return nil, ErrOpenAIAPIKeyRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return ErrOpenAIAPIKeyRequired
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger creates a structured logger writing to stdout.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stdout)
}

// newLogger builds the handler named by LogFormat: "json" for production,
// "pretty" for colored local output, anything else as plain text.
func (c *Config) newLogger(w io.Writer) *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	switch strings.ToLower(c.LogFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "pretty":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, WorkDir: %s, SummaryModel: %s, TranscriptionModel: %s, FrameIntervalSec: %g, FrameScale: %g, FramePolicy: %s, StoreDriver: %s, Collection: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.WorkDir,
		c.SummaryModel,
		c.TranscriptionModel,
		c.FrameIntervalSec,
		c.FrameScale,
		c.FramePolicy,
		c.StoreDriver,
		c.Collection,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
