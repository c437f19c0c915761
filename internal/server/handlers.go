package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/maauso/video-summarizer/internal/job"
	"github.com/maauso/video-summarizer/internal/job/id"
	"github.com/maauso/video-summarizer/internal/record"
)

// DefaultMaxUploadBytes caps the request body of POST /upload.
const DefaultMaxUploadBytes = 2 << 30

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 32 << 20

// JobService is the part of job.Service the handlers use.
type JobService interface {
	CreateJob(ctx context.Context, input job.CreateInput) (*job.Job, error)
	Enqueue(ctx context.Context, jobID string) error
	GetJob(ctx context.Context, id string) (*job.Job, error)
	ListJobs(ctx context.Context) ([]*job.Job, error)
	DeleteJob(ctx context.Context, id string) error
	GetSummary(ctx context.Context, id int64) (record.Record, error)
	ListSummaries(ctx context.Context) ([]record.Record, error)
	StoreInfo(ctx context.Context) (record.ContainerInfo, error)
}

// UploadStore stores uploaded videos.
type UploadStore interface {
	SaveUpload(ctx context.Context, originalName string, data io.Reader) (string, error)
	Remove(ctx context.Context, paths []string) error
}

// UploadRecorder observes accepted uploads.
type UploadRecorder interface {
	RecordUpload(sizeBytes int64)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            JobService
	uploads            UploadStore
	recorder           UploadRecorder
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
	maxUploadBytes     int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables queueing jobs for the worker.
// When disabled, Upload only creates the job and returns immediately.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// WithMaxUploadBytes caps the upload request body.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithUploadRecorder sets an observer for accepted uploads.
func WithUploadRecorder(r UploadRecorder) HandlerOption {
	return func(h *Handlers) {
		h.recorder = r
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service JobService, uploads UploadStore, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		uploads:            uploads,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
		maxUploadBytes:     DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Upload handles POST /upload: a multipart form with a "video" file and an
// optional "interval" in seconds.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large", "UPLOAD_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to parse multipart form", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded", "MISSING_VIDEO")
		return
	}
	defer func() { _ = file.Close() }()

	var req UploadRequest
	if raw := strings.TrimSpace(r.FormValue("interval")); raw != "" {
		req.IntervalSec, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "interval must be a number", "VALIDATION_ERROR")
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	path, err := h.uploads.SaveUpload(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("failed to store upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store upload", "UPLOAD_FAILED")
		return
	}

	createdJob, err := h.service.CreateJob(r.Context(), job.CreateInput{
		VideoPath:   path,
		Filename:    filepath.Base(path),
		IntervalSec: req.IntervalSec,
	})
	if err != nil {
		h.logger.Error("failed to create job", slog.String("error", err.Error()))
		_ = h.uploads.Remove(context.WithoutCancel(r.Context()), []string{path})
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	if h.enableAsyncProcess {
		if err := h.service.Enqueue(r.Context(), createdJob.ID); err != nil {
			h.logger.Warn("failed to enqueue job",
				slog.String("job_id", createdJob.ID),
				slog.String("error", err.Error()),
			)
			_ = h.uploads.Remove(context.WithoutCancel(r.Context()), []string{path})
			if errors.Is(err, job.ErrQueueFull) {
				writeError(w, http.StatusServiceUnavailable, "too many videos waiting, retry later", "QUEUE_FULL")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to queue job", "JOB_CREATION_FAILED")
			return
		}
	}

	if h.recorder != nil {
		h.recorder.RecordUpload(header.Size)
	}

	h.logger.Info("upload accepted",
		slog.String("job_id", createdJob.ID),
		slog.String("path", path),
		slog.Int64("size", header.Size),
	)

	writeJSON(w, http.StatusAccepted, UploadResponse{
		ID:       createdJob.ID,
		Status:   string(createdJob.Status),
		Filename: createdJob.Filename,
	})
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if !id.Valid(jobID) {
		writeError(w, http.StatusBadRequest, "malformed job ID", "INVALID_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		h.jobError(w, jobID, err)
		return
	}

	writeJSON(w, http.StatusOK, newJobResponse(foundJob))
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_FETCH_FAILED")
		return
	}

	resp := JobListResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, newJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteJob handles DELETE /jobs/{id} requests.
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if !id.Valid(jobID) {
		writeError(w, http.StatusBadRequest, "malformed job ID", "INVALID_JOB_ID")
		return
	}
	if err := h.service.DeleteJob(r.Context(), jobID); err != nil {
		if errors.Is(err, job.ErrJobActive) {
			writeError(w, http.StatusConflict, "job is still running", "JOB_ACTIVE")
			return
		}
		h.jobError(w, jobID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) jobError(w http.ResponseWriter, jobID string, err error) {
	if errors.Is(err, job.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
		return
	}
	h.logger.Error("failed to get job",
		slog.String("job_id", jobID),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
}

// ListSummaries handles GET /summaries requests.
func (h *Handlers) ListSummaries(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.ListSummaries(r.Context())
	if err != nil {
		h.logger.Error("failed to list summaries", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error", "STORE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, SummaryListResponse{Summaries: recs, Count: len(recs)})
}

// GetSummary handles GET /summaries/{id} requests.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	summaryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || summaryID <= 0 {
		writeError(w, http.StatusBadRequest, "summary ID must be a positive integer", "INVALID_ID")
		return
	}

	rec, err := h.service.GetSummary(r.Context(), summaryID)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, http.StatusNotFound, "summary not found", "SUMMARY_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get summary",
			slog.Int64("id", summaryID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error", "STORE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// StoreInfo handles GET /summaries/info requests.
func (h *Handlers) StoreInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.StoreInfo(r.Context())
	if err != nil {
		h.logger.Error("failed to read store info", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error", "STORE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
