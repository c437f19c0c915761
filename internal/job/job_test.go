package job

import (
	"testing"
	"time"

	"github.com/maauso/video-summarizer/internal/job/id"
	"github.com/maauso/video-summarizer/internal/pipeline"
	"github.com/maauso/video-summarizer/internal/record"
)

func TestNew(t *testing.T) {
	job := New("/uploads/talk-1.mp4", "talk-1.mp4")

	if !id.Valid(job.ID) {
		t.Errorf("expected generated job ID, got %q", job.ID)
	}
	if job.Status != StatusInQueue {
		t.Errorf("expected status %s, got %s", StatusInQueue, job.Status)
	}
	if job.Stage != pipeline.StateReceived {
		t.Errorf("expected stage %s, got %s", pipeline.StateReceived, job.Stage)
	}
	if job.VideoPath != "/uploads/talk-1.mp4" || job.Filename != "talk-1.mp4" {
		t.Errorf("unexpected input fields: %q %q", job.VideoPath, job.Filename)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestNewWithID(t *testing.T) {
	job := NewWithID("test-job-123", "v.mp4", "v.mp4")

	if job.ID != "test-job-123" {
		t.Errorf("expected ID test-job-123, got %s", job.ID)
	}
	if job.Status != StatusInQueue {
		t.Errorf("expected status %s, got %s", StatusInQueue, job.Status)
	}
}

func TestJob_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"IN_QUEUE to RUNNING", StatusInQueue, StatusRunning, false},
		{"IN_QUEUE to FAILED", StatusInQueue, StatusFailed, false},
		{"RUNNING to COMPLETED", StatusRunning, StatusCompleted, false},
		{"RUNNING to FAILED", StatusRunning, StatusFailed, false},
		{"IN_QUEUE to COMPLETED", StatusInQueue, StatusCompleted, true},
		{"COMPLETED to IN_QUEUE", StatusCompleted, StatusInQueue, true},
		{"COMPLETED to RUNNING", StatusCompleted, StatusRunning, true},
		{"FAILED to RUNNING", StatusFailed, StatusRunning, true},
		{"FAILED to COMPLETED", StatusFailed, StatusCompleted, true},
		{"RUNNING to RUNNING", StatusRunning, StatusRunning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewWithID("test", "", "")
			job.Status = tt.from

			err := job.TransitionTo(tt.to)

			if tt.wantErr && err == nil {
				t.Errorf("expected error for transition %s -> %s", tt.from, tt.to)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for transition %s -> %s: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestJob_Start(t *testing.T) {
	job := New("v.mp4", "v.mp4")
	beforeStart := time.Now()

	if err := job.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusRunning {
		t.Errorf("expected status %s, got %s", StatusRunning, job.Status)
	}
	if job.StartedAt.Before(beforeStart) {
		t.Error("expected StartedAt to be set after test start")
	}
}

func TestJob_Complete(t *testing.T) {
	job := New("v.mp4", "v.mp4")
	_ = job.Start()
	job.SetStage(pipeline.StatePersisting)

	res := &pipeline.Result{
		FrameCount: 5,
		AudioPath:  "/data/audio/v.mp3",
		Transcript: "hello",
		Summary:    "# Hi",
		Ack:        record.Ack{ID: 42},
	}
	if err := job.Complete(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, job.Status)
	}
	if job.Stage != pipeline.StateCompleted {
		t.Errorf("expected stage %s, got %s", pipeline.StateCompleted, job.Stage)
	}
	if job.RecordID != 42 || job.FrameCount != 5 || job.Summary != "# Hi" || job.Transcript != "hello" {
		t.Errorf("result not copied onto job: %+v", job.Clone())
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
}

func TestJob_CompleteRequiresRunning(t *testing.T) {
	job := New("v.mp4", "v.mp4")

	if err := job.Complete(&pipeline.Result{}); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if job.Status != StatusInQueue {
		t.Errorf("expected status to stay %s, got %s", StatusInQueue, job.Status)
	}
}

func TestJob_Fail(t *testing.T) {
	job := New("v.mp4", "v.mp4")
	_ = job.Start()

	errMsg := "pipeline failed at TRANSCRIBING: transcription failure: boom"
	if err := job.Fail(pipeline.StateTranscribing, "transcription", errMsg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.Stage != pipeline.StateTranscribing {
		t.Errorf("expected stage %s, got %s", pipeline.StateTranscribing, job.Stage)
	}
	if job.Error != errMsg || job.ErrorKind != "transcription" {
		t.Errorf("unexpected error fields %q %q", job.Error, job.ErrorKind)
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set on failure")
	}
}

func TestJob_CannotTransitionFromTerminalState(t *testing.T) {
	job := New("v.mp4", "v.mp4")
	_ = job.Start()
	_ = job.Fail("", "unknown", "x")

	if err := job.Start(); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := job.Complete(&pipeline.Result{}); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestJob_IsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusInQueue, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		job := NewWithID("x", "", "")
		job.Status = tt.status
		if got := job.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal() for %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestJob_Clone(t *testing.T) {
	job := New("v.mp4", "v.mp4")
	job.Status = StatusRunning
	job.SetStage(pipeline.StateEncoding)
	job.SetSummaryURL("https://bucket/summaries/1.md")

	clone := job.Clone()

	if clone.ID != job.ID {
		t.Errorf("expected ID %s, got %s", job.ID, clone.ID)
	}
	if clone.Stage != pipeline.StateEncoding {
		t.Errorf("expected Stage %s, got %s", pipeline.StateEncoding, clone.Stage)
	}
	if clone.SummaryURL != job.SummaryURL {
		t.Errorf("expected SummaryURL %s, got %s", job.SummaryURL, clone.SummaryURL)
	}

	clone.Status = StatusCompleted
	if job.Status == StatusCompleted {
		t.Error("modifying clone should not affect original")
	}
}

func TestJob_GetStatus_ThreadSafe(t *testing.T) {
	job := New("v.mp4", "v.mp4")

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			_ = job.GetStatus()
			_ = job.Clone()
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = job.Start()
			job.SetStage(pipeline.StateSampling)
		}
		done <- true
	}()

	<-done
	<-done
}
