// Package job tracks asynchronous summarization runs. A Job mirrors the
// pipeline stage it is in and keeps the run's outcome for later reads.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/video-summarizer/internal/job/id"
	"github.com/maauso/video-summarizer/internal/pipeline"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is waiting for the pipeline.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the pipeline is working on the job.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the summary was produced and persisted.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates a pipeline stage failed.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job is one uploaded video on its way to a summary.
type Job struct {
	mu sync.RWMutex

	ID     string
	Status Status
	// Stage is the pipeline state last reported for this job.
	Stage pipeline.State

	VideoPath   string
	Filename    string
	IntervalSec float64

	RecordID   int64
	Transcript string
	Summary    string
	FrameCount int
	AudioPath  string
	// SummaryURL is set when the summary was archived to object storage.
	SummaryURL string

	// Error and ErrorKind describe a failed run.
	Error     string
	ErrorKind string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New(videoPath, filename string) *Job {
	return NewWithID(id.Generate(), videoPath, filename)
}

// NewWithID creates a new Job with the specified ID and initial IN_QUEUE status.
func NewWithID(jobID, videoPath, filename string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusInQueue,
		Stage:     pipeline.StateReceived,
		VideoPath: videoPath,
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}
	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// SetStage records the pipeline state the job has reached.
func (j *Job) SetStage(stage pipeline.State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Stage = stage
	j.UpdatedAt = time.Now()
}

// Complete stores the run's outcome and transitions the job to COMPLETED.
func (j *Job) Complete(res *pipeline.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	j.Stage = pipeline.StateCompleted
	j.RecordID = res.Ack.ID
	j.Transcript = res.Transcript
	j.Summary = res.Summary
	j.FrameCount = res.FrameCount
	j.AudioPath = res.AudioPath
	return nil
}

// Fail transitions the job to FAILED, keeping the stage that failed.
func (j *Job) Fail(stage pipeline.State, kind, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	if stage != "" {
		j.Stage = stage
	}
	j.ErrorKind = kind
	j.Error = errMsg
	return nil
}

// SetSummaryURL records where the summary was archived.
func (j *Job) SetSummaryURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.SummaryURL = url
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Stage:       j.Stage,
		VideoPath:   j.VideoPath,
		Filename:    j.Filename,
		IntervalSec: j.IntervalSec,
		RecordID:    j.RecordID,
		Transcript:  j.Transcript,
		Summary:     j.Summary,
		FrameCount:  j.FrameCount,
		AudioPath:   j.AudioPath,
		SummaryURL:  j.SummaryURL,
		Error:       j.Error,
		ErrorKind:   j.ErrorKind,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
