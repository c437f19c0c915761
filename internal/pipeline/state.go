package pipeline

import (
	"errors"

	"github.com/maauso/video-summarizer/internal/failure"
)

// State is a step of a pipeline run.
type State string

const (
	// StateReceived is the initial state: a video path has been handed over.
	StateReceived State = "RECEIVED"
	// StateSampling clears stale frames and samples new ones.
	StateSampling State = "SAMPLING"
	// StateEncoding turns frame files into base64 payloads.
	StateEncoding State = "ENCODING"
	// StateExtractingAudio demuxes the audio track to mp3.
	StateExtractingAudio State = "EXTRACTING_AUDIO"
	// StateTranscribing converts the audio track to text.
	StateTranscribing State = "TRANSCRIBING"
	// StateSummarizing asks the generation service for a summary.
	StateSummarizing State = "SUMMARIZING"
	// StatePersisting writes the record to the document store.
	StatePersisting State = "PERSISTING"
	// StateCompleted is the terminal success state.
	StateCompleted State = "COMPLETED"
	// StateFailed is the terminal failure state.
	StateFailed State = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed. Each working
// state moves to the next one or to FAILED.
var validTransitions = map[State][]State{
	StateReceived:        {StateSampling, StateFailed},
	StateSampling:        {StateEncoding, StateFailed},
	StateEncoding:        {StateExtractingAudio, StateFailed},
	StateExtractingAudio: {StateTranscribing, StateFailed},
	StateTranscribing:    {StateSummarizing, StateFailed},
	StateSummarizing:     {StatePersisting, StateFailed},
	StatePersisting:      {StateCompleted, StateFailed},
	StateCompleted:       {},
	StateFailed:          {},
}

// CanTransition reports whether a run may move from one state to another.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is COMPLETED or FAILED.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// stageKinds is the failure kind given to uncategorised errors of each stage,
// including an expired stage deadline.
var stageKinds = map[State]error{
	StateSampling:        failure.ErrExtraction,
	StateEncoding:        failure.ErrIO,
	StateExtractingAudio: failure.ErrExtraction,
	StateTranscribing:    failure.ErrTranscription,
	StateSummarizing:     failure.ErrSummarization,
	StatePersisting:      failure.ErrPersistence,
}
