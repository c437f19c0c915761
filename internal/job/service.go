package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/maauso/video-summarizer/internal/failure"
	"github.com/maauso/video-summarizer/internal/pipeline"
	"github.com/maauso/video-summarizer/internal/record"
)

// Runner executes the summarization pipeline for one video.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input, observers ...pipeline.Observer) (*pipeline.Result, error)
}

// SummaryReader reads persisted summaries.
type SummaryReader interface {
	GetByID(ctx context.Context, id int64) (record.Record, error)
	GetAll(ctx context.Context) ([]record.Record, error)
	Info(ctx context.Context) (record.ContainerInfo, error)
}

// Archiver copies a finished summary to object storage.
type Archiver interface {
	UploadToS3(ctx context.Context, key string, r io.Reader) (string, error)
}

// CreateInput describes an uploaded video waiting to be summarized.
type CreateInput struct {
	VideoPath string
	// Filename is stored with the record; defaults to the base of VideoPath.
	Filename string
	// IntervalSec overrides the sampling interval when positive.
	IntervalSec float64
}

// Service tracks summarization jobs and runs them through the pipeline.
type Service struct {
	repo     Repository
	runner   Runner
	records  SummaryReader
	archiver Archiver
	logger   *slog.Logger

	// queue feeds Work in upload order. Its capacity bounds the backlog.
	queue chan string

	// runMu serializes runs: the pipeline workspace is shared and must not
	// be used by two runs at once. Work is the only caller in the server;
	// direct callers of ProcessExistingJob are not ordered.
	runMu sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithArchiver enables copying each summary to object storage.
func WithArchiver(a Archiver) ServiceOption {
	return func(s *Service) {
		s.archiver = a
	}
}

// DefaultQueueSize is how many jobs may wait for the worker.
const DefaultQueueSize = 64

// WithQueueSize sets how many jobs may wait for the worker.
func WithQueueSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.queue = make(chan string, n)
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, runner Runner, records SummaryReader, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:    repo,
		runner:  runner,
		records: records,
		logger:  logger,
		queue:   make(chan string, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob creates a new job in IN_QUEUE status and persists it.
func (s *Service) CreateJob(ctx context.Context, input CreateInput) (*Job, error) {
	job := New(input.VideoPath, input.Filename)
	job.IntervalSec = input.IntervalSec

	s.logger.Info("creating new job",
		slog.String("job_id", job.ID),
		slog.String("video", input.VideoPath),
		slog.Float64("interval_sec", input.IntervalSec),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return job.Clone(), nil
}

// Enqueue hands a queued job to the worker. When the queue is full the job
// is marked FAILED and ErrQueueFull is returned.
func (s *Service) Enqueue(ctx context.Context, jobID string) error {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	select {
	case s.queue <- jobID:
		s.logger.Debug("job enqueued", slog.String("job_id", jobID), slog.Int("queued", len(s.queue)))
		return nil
	default:
	}

	_ = job.Fail("", "capacity", ErrQueueFull.Error())
	s.save(ctx, job)
	s.logger.Warn("job rejected, queue full",
		slog.String("job_id", jobID),
		slog.Int("capacity", cap(s.queue)),
	)
	return ErrQueueFull
}

// Work processes enqueued jobs one at a time, in the order they were
// enqueued, until ctx is done.
func (s *Service) Work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-s.queue:
			if _, err := s.ProcessExistingJob(ctx, jobID); err != nil {
				s.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// ProcessExistingJob runs a queued job through the pipeline. The job's stage
// is updated on every pipeline transition. It returns the final job state
// and, for a failed run, the *pipeline.StageError.
func (s *Service) ProcessExistingJob(ctx context.Context, jobID string) (*Job, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := job.Start(); err != nil {
		return nil, fmt.Errorf("start job %s: %w", jobID, err)
	}
	s.save(ctx, job)

	logger := s.logger.With(slog.String("job_id", job.ID))
	logger.Info("processing job", slog.String("video", job.VideoPath))

	track := pipeline.ObserverFunc(func(ctx context.Context, t pipeline.Transition) {
		if t.To.IsTerminal() {
			return
		}
		job.SetStage(t.To)
		s.save(ctx, job)
	})

	res, runErr := s.runner.Run(ctx, pipeline.Input{
		RunID:       job.ID,
		VideoPath:   job.VideoPath,
		Filename:    job.Filename,
		IntervalSec: job.IntervalSec,
	}, track)

	if runErr != nil {
		var stage pipeline.State
		var serr *pipeline.StageError
		if errors.As(runErr, &serr) {
			stage = serr.Stage
		}
		_ = job.Fail(stage, failure.KindOf(runErr), runErr.Error())
		s.save(ctx, job)
		logger.Error("job failed",
			slog.String("stage", string(stage)),
			slog.String("error", runErr.Error()),
		)
		return job.Clone(), runErr
	}

	if err := job.Complete(res); err != nil {
		return nil, err
	}
	s.archive(ctx, job)
	s.save(ctx, job)

	logger.Info("job completed",
		slog.Int64("record_id", res.Ack.ID),
		slog.Int("frames", res.FrameCount),
	)
	return job.Clone(), nil
}

// archive copies the summary to object storage. Failures are logged only:
// the record is already persisted.
func (s *Service) archive(ctx context.Context, job *Job) {
	if s.archiver == nil {
		return
	}
	key := fmt.Sprintf("summaries/%d.md", job.RecordID)
	url, err := s.archiver.UploadToS3(ctx, key, strings.NewReader(job.Summary))
	if err != nil {
		s.logger.Warn("failed to archive summary",
			slog.String("job_id", job.ID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	job.SetSummaryURL(url)
}

func (s *Service) save(ctx context.Context, job *Job) {
	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// GetJob retrieves a job by ID.
func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all tracked jobs, oldest first.
func (s *Service) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// DeleteJob forgets a finished job. The uploaded video, frames, audio and
// record are left in place.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsTerminal() {
		return ErrJobActive
	}
	return s.repo.Delete(ctx, id)
}

// GetSummary returns the persisted record with the given ID.
func (s *Service) GetSummary(ctx context.Context, id int64) (record.Record, error) {
	return s.records.GetByID(ctx, id)
}

// ListSummaries returns every persisted record.
func (s *Service) ListSummaries(ctx context.Context) ([]record.Record, error) {
	return s.records.GetAll(ctx)
}

// StoreInfo describes the record collection.
func (s *Service) StoreInfo(ctx context.Context) (record.ContainerInfo, error) {
	return s.records.Info(ctx)
}
