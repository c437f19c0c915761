// Package media provides frame sampling and frame payload encoding for the
// summarization pipeline. Sampling shells out to ffmpeg; everything else in
// this package works on the sampled files directly.
package media

import "context"

// FrameSampler extracts still images from a video at a fixed interval.
type FrameSampler interface {
	// SampleFrames writes one frame per opts.IntervalSec into outputDir using
	// the frame naming convention (see FrameName) and returns the written
	// paths sorted by sequence number. outputDir must already exist.
	SampleFrames(ctx context.Context, videoPath, outputDir string, opts SampleOpts) ([]string, error)
}

// SampleOpts configures frame sampling.
type SampleOpts struct {
	// IntervalSec is the time between two sampled frames in seconds.
	// Must be positive. Fractional values are allowed.
	IntervalSec float64

	// Scale is the linear downscale factor applied to each frame,
	// in the range (0, 1]. Zero means DefaultScale.
	Scale float64
}

// DefaultScale halves both frame dimensions.
const DefaultScale = 0.5

// DefaultSampleOpts returns a two second interval at half scale.
func DefaultSampleOpts() SampleOpts {
	return SampleOpts{
		IntervalSec: 2,
		Scale:       DefaultScale,
	}
}
