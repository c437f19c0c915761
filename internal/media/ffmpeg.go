package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maauso/video-summarizer/internal/failure"
)

// Static errors for media operations.
var (
	// ErrInvalidInterval is returned when the sampling interval is not positive.
	ErrInvalidInterval = errors.New("invalid interval: must be positive")
	// ErrInvalidScale is returned when the scale factor is outside (0, 1].
	ErrInvalidScale = errors.New("invalid scale: must be in (0, 1]")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// FFmpegProcessor implements FrameSampler using the ffmpeg CLI.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
	logger      *slog.Logger
}

// ProcessorOption configures an FFmpegProcessor.
type ProcessorOption func(*FFmpegProcessor)

// WithFFprobePath sets the ffprobe binary used for duration probing.
func WithFFprobePath(path string) ProcessorOption {
	return func(p *FFmpegProcessor) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *FFmpegProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegProcessor(ffmpegPath string, opts ...ProcessorOption) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	p := &FFmpegProcessor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: "ffprobe",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SampleRate returns the ffmpeg fps value for a sampling interval.
func SampleRate(intervalSec float64) float64 {
	return 1 / intervalSec
}

// FrameCount returns how many frames a video of durationSec yields when
// sampled every intervalSec: one frame at t = 0, s, 2s, ... strictly before
// the end of the video. A 10s video at 2s gives 5 frames (0, 2, 4, 6, 8);
// no frame is emitted for the final boundary at t = 10. The result is
// clamped to [1, MaxFrames].
func FrameCount(durationSec, intervalSec float64) int {
	if intervalSec <= 0 {
		return 0
	}
	// The epsilon absorbs float noise such as 3.0/0.3 = 10.000000000000002.
	n := int(math.Ceil(durationSec/intervalSec - 1e-9))
	if n < 1 {
		n = 1
	}
	if n > MaxFrames {
		n = MaxFrames
	}
	return n
}

// TruncatedSec returns how many seconds at the end of a video of
// durationSec get no frame because of the MaxFrames cap. Zero when the
// whole video is covered.
func TruncatedSec(durationSec, intervalSec float64) float64 {
	if intervalSec <= 0 {
		return 0
	}
	covered := float64(MaxFrames) * intervalSec
	if durationSec <= covered {
		return 0
	}
	return durationSec - covered
}

// warnTruncation logs when the frame cap leaves the tail of a video unsampled.
func (p *FFmpegProcessor) warnTruncation(videoPath string, durationSec, intervalSec float64) {
	dropped := TruncatedSec(durationSec, intervalSec)
	if dropped == 0 {
		return
	}
	p.logger.Warn("video exceeds frame cap, tail not sampled",
		slog.String("video", videoPath),
		slog.Float64("duration_sec", durationSec),
		slog.Float64("interval_sec", intervalSec),
		slog.Int("max_frames", MaxFrames),
		slog.Float64("dropped_sec", dropped),
	)
}

// SampleFrames implements FrameSampler.
// The video duration is probed first so the frame count can be capped with
// -frames:v; the fps filter may otherwise emit an extra frame at EOF.
func (p *FFmpegProcessor) SampleFrames(ctx context.Context, videoPath, outputDir string, opts SampleOpts) ([]string, error) {
	if opts.IntervalSec <= 0 || math.IsNaN(opts.IntervalSec) || math.IsInf(opts.IntervalSec, 0) {
		return nil, fmt.Errorf("%w: %w: got %v", failure.ErrExtraction, ErrInvalidInterval, opts.IntervalSec)
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	if opts.Scale < 0 || opts.Scale > 1 {
		return nil, fmt.Errorf("%w: %w: got %v", failure.ErrExtraction, ErrInvalidScale, opts.Scale)
	}

	duration, err := p.GetMediaDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %w", failure.ErrExtraction, videoPath, err)
	}
	maxFrames := FrameCount(duration, opts.IntervalSec)
	p.warnTruncation(videoPath, duration, opts.IntervalSec)

	args := []string{
		"-y",            // Overwrite output files without asking
		"-i", videoPath, // Input file
		"-vf", sampleFilter(opts), // fps + optional scale
		"-frames:v", strconv.Itoa(maxFrames), // Boundary cap
		"-start_number", "1", // frame-001 is the first frame
		framePattern(outputDir),
	}

	p.logger.Debug("sampling frames",
		slog.String("video", videoPath),
		slog.Float64("duration_sec", duration),
		slog.Float64("interval_sec", opts.IntervalSec),
		slog.Int("max_frames", maxFrames),
	)

	if err := p.runFFmpeg(ctx, args); err != nil {
		return nil, fmt.Errorf("%w: sample frames: %w", failure.ErrExtraction, err)
	}

	frames, err := ListFrames(outputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", failure.ErrExtraction, err)
	}
	return frames, nil
}

// sampleFilter builds the -vf expression for opts.
func sampleFilter(opts SampleOpts) string {
	filter := "fps=" + strconv.FormatFloat(SampleRate(opts.IntervalSec), 'f', -1, 64)
	if opts.Scale != 1 {
		// Keep dimensions even so any downstream encoder accepts them.
		s := strconv.FormatFloat(opts.Scale, 'f', -1, 64)
		filter += fmt.Sprintf(",scale=trunc(iw*%s/2)*2:trunc(ih*%s/2)*2", s, s)
	}
	return filter
}

// ListFrames returns the frame files in dir sorted by sequence number.
// Entries that do not follow the naming convention are ignored.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	var frames []string
	for _, entry := range entries {
		if !entry.IsDir() && IsFrameName(entry.Name()) {
			frames = append(frames, filepath.Join(dir, entry.Name()))
		}
	}

	SortFrames(frames)
	return frames, nil
}

// GetMediaDuration returns the duration in seconds of a media file.
// The first video stream's duration is preferred over the container's,
// which can run slightly longer when the audio track is padded. Containers
// that carry no per-stream duration fall back to the format duration.
func (p *FFmpegProcessor) GetMediaDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=duration:format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return parseDuration(stdout.String())
}

// parseDuration returns the first numeric line of ffprobe output.
// Streams without a duration print "N/A", which is skipped.
func parseDuration(output string) (float64, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "N/A" {
			continue
		}
		duration, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", line, err)
		}
		return duration, nil
	}
	return 0, fmt.Errorf("parse duration: no value in %q", output)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ FrameSampler = (*FFmpegProcessor)(nil)
