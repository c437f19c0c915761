package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/maauso/video-summarizer/internal/failure"
)

// ErrNoAudioTrack is returned when the input has no audio stream to extract.
var ErrNoAudioTrack = errors.New("no audio track")

// FFmpegExtractor implements Extractor using ffmpeg CLI.
type FFmpegExtractor struct {
	ffmpegPath string
	bitrate    string
}

// ExtractorOption configures an FFmpegExtractor.
type ExtractorOption func(*FFmpegExtractor)

// WithBitrate sets the target audio bitrate, e.g. "32k".
func WithBitrate(bitrate string) ExtractorOption {
	return func(e *FFmpegExtractor) {
		if bitrate != "" {
			e.bitrate = bitrate
		}
	}
}

// NewFFmpegExtractor creates a new FFmpegExtractor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewFFmpegExtractor(ffmpegPath string, opts ...ExtractorOption) *FFmpegExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	e := &FFmpegExtractor{
		ffmpegPath: ffmpegPath,
		bitrate:    DefaultBitrate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract implements Extractor.Extract.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	args := []string{
		"-y", // Overwrite output
		"-i", videoPath,
		"-map", "0:a:0", // Fails when there is no audio stream
		"-vn",
		"-b:a", e.bitrate,
		audioPath,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: ffmpeg cancelled: %w", failure.ErrExtraction, ctx.Err())
		}
		if bytes.Contains(stderr.Bytes(), []byte("matches no streams")) {
			return fmt.Errorf("%w: %w in %s", failure.ErrExtraction, ErrNoAudioTrack, videoPath)
		}
		return fmt.Errorf("%w: ffmpeg error: %w, stderr: %s", failure.ErrExtraction, err, stderr.String())
	}

	return nil
}

// Verify interface implementation at compile time.
var _ Extractor = (*FFmpegExtractor)(nil)
