// Package failure defines the error kinds shared by every pipeline stage.
// Components wrap their causes with one of these sentinels so callers can
// classify a failure with errors.Is regardless of which package produced it.
package failure

import "errors"

// Error kinds.
var (
	// ErrIO is a filesystem read, write, list or delete failure.
	ErrIO = errors.New("io failure")
	// ErrExtraction is an ffmpeg/ffprobe failure, including unreadable,
	// corrupt or audio-less input.
	ErrExtraction = errors.New("extraction failure")
	// ErrValidation is a frame filename that does not match the sampler's
	// naming convention (strict encoding only).
	ErrValidation = errors.New("validation failure")
	// ErrTranscription is a speech-to-text failure.
	ErrTranscription = errors.New("transcription failure")
	// ErrSummarization is a generation service failure.
	ErrSummarization = errors.New("summarization failure")
	// ErrPersistence is a document store failure.
	ErrPersistence = errors.New("persistence failure")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrIO, "io"},
	{ErrExtraction, "extraction"},
	{ErrValidation, "validation"},
	{ErrTranscription, "transcription"},
	{ErrSummarization, "summarization"},
	{ErrPersistence, "persistence"},
}

// KindOf returns the short name of the first kind err matches,
// or "unknown" when it matches none.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

// HasKind reports whether err matches any of the kinds in this package.
func HasKind(err error) bool {
	return KindOf(err) != "unknown"
}
