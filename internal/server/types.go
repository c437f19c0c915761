// Package server provides the HTTP API: video upload, job status and reads
// of persisted summaries. DTOs here are kept separate from domain types.
package server

import (
	"time"

	"github.com/maauso/video-summarizer/internal/job"
	"github.com/maauso/video-summarizer/internal/record"
)

// UploadRequest holds the non-file form fields of POST /upload.
type UploadRequest struct {
	// IntervalSec overrides the frame sampling interval.
	IntervalSec float64 `validate:"omitempty,gt=0,lte=300"`
}

// UploadResponse is the HTTP response after accepting an upload.
type UploadResponse struct {
	// ID is the job tracking the upload.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
	// Filename is the name the video was stored under.
	Filename string `json:"filename"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage"`
	Filename    string     `json:"filename"`
	RecordID    int64      `json:"record_id,omitempty"`
	FrameCount  int        `json:"frame_count,omitempty"`
	Transcript  string     `json:"transcript,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	SummaryURL  string     `json:"summary_url,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorKind   string     `json:"error_kind,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:         j.ID,
		Status:     string(j.Status),
		Stage:      string(j.Stage),
		Filename:   j.Filename,
		RecordID:   j.RecordID,
		FrameCount: j.FrameCount,
		Transcript: j.Transcript,
		Summary:    j.Summary,
		SummaryURL: j.SummaryURL,
		ErrorKind:  j.ErrorKind,
		CreatedAt:  j.CreatedAt,
	}
	if j.Status == job.StatusFailed {
		// Internal causes are not exposed; the kind and stage are enough.
		resp.Error = "summarization failed"
	}
	if !j.CompletedAt.IsZero() {
		t := j.CompletedAt
		resp.CompletedAt = &t
	}
	return resp
}

// JobListResponse wraps GET /jobs.
type JobListResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// SummaryListResponse wraps GET /summaries.
type SummaryListResponse struct {
	Summaries []record.Record `json:"summaries"`
	Count     int             `json:"count"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
