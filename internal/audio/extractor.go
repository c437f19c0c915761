// Package audio provides interfaces and implementations for audio processing.
package audio

import (
	"context"
	"path/filepath"
	"strings"
)

// Extractor defines the interface for demuxing a video's audio track.
type Extractor interface {
	// Extract writes the first audio track of videoPath to audioPath as a
	// compressed file. It fails when the video has no audio track instead of
	// producing an empty file. The directory of audioPath must exist.
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// FileExt is the extension of extracted audio files.
const FileExt = ".mp3"

// DefaultBitrate is the target audio bitrate passed to ffmpeg.
const DefaultBitrate = "32k"

// FileName returns the audio file name derived from a video path:
// the video's base name without extension, plus ".mp3".
func FileName(videoPath string) string {
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + FileExt
}
