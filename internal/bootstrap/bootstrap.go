// Package bootstrap wires configuration into the pipeline, the job service
// and the stores behind them.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/video-summarizer/internal/audio"
	"github.com/maauso/video-summarizer/internal/config"
	"github.com/maauso/video-summarizer/internal/job"
	"github.com/maauso/video-summarizer/internal/media"
	"github.com/maauso/video-summarizer/internal/metrics"
	"github.com/maauso/video-summarizer/internal/pipeline"
	"github.com/maauso/video-summarizer/internal/record"
	"github.com/maauso/video-summarizer/internal/storage"
	"github.com/maauso/video-summarizer/internal/summarize"
	"github.com/maauso/video-summarizer/internal/transcribe"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Service *job.Service
	Uploads storage.Storage
	Records *record.Client
	Metrics *metrics.Metrics
}

// Close releases the summary store.
func (d *Dependencies) Close() error {
	return d.Records.Close()
}

// NewDependencies creates and initializes all dependencies for the server.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	records, err := NewRecords(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	uploads, err := initStorage(ctx, cfg, logger)
	if err != nil {
		_ = records.Close()
		return nil, err
	}

	m := metrics.New()
	orch, err := NewOrchestrator(cfg, records, logger, pipeline.WithObserver(m))
	if err != nil {
		_ = records.Close()
		return nil, err
	}

	svcOpts := []job.ServiceOption{job.WithQueueSize(cfg.JobQueueSize)}
	if cfg.S3Enabled() {
		svcOpts = append(svcOpts, job.WithArchiver(uploads))
	}
	svc := job.NewService(job.NewMemoryRepository(), orch, records, logger, svcOpts...)

	return &Dependencies{
		Service: svc,
		Uploads: uploads,
		Records: records,
		Metrics: m,
	}, nil
}

// NewRecords opens the summary store selected by STORE_DRIVER.
func NewRecords(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*record.Client, error) {
	store, err := record.Open(ctx, record.OpenConfig{
		Driver:      cfg.StoreDriver,
		Collection:  cfg.Collection,
		SQLitePath:  cfg.SQLiteFile(),
		DatabaseURL: cfg.DatabaseURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open summary store: %w", err)
	}

	logger.Info("summary store configured",
		slog.String("backend", store.Backend()),
		slog.String("collection", store.Collection()),
	)
	return record.NewClient(store, record.WithLogger(logger)), nil
}

// NewOrchestrator builds the pipeline with ffmpeg-backed media stages and
// OpenAI-compatible transcription and summarization clients.
func NewOrchestrator(cfg *config.Config, recorder pipeline.Recorder, logger *slog.Logger, opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	policy, err := media.ParsePolicy(cfg.FramePolicy)
	if err != nil {
		return nil, err
	}

	transcriber, err := transcribe.NewClient(cfg.OpenAIAPIKey,
		transcribe.WithBaseURL(cfg.OpenAIBaseURL),
		transcribe.WithModel(cfg.TranscriptionModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create transcription client: %w", err)
	}

	summarizer, err := summarize.NewClient(cfg.OpenAIAPIKey,
		summarize.WithBaseURL(cfg.OpenAIBaseURL),
		summarize.WithModel(cfg.SummaryModel),
		summarize.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create summarization client: %w", err)
	}

	deps := pipeline.Deps{
		Sampler: media.NewFFmpegProcessor(cfg.FFmpegPath,
			media.WithFFprobePath(cfg.FFprobe),
			media.WithLogger(logger),
		),
		Encoder: media.NewEncoder(policy,
			media.WithConcurrency(cfg.EncodeConcurrency),
			media.WithEncoderLogger(logger),
		),
		Extractor:   audio.NewFFmpegExtractor(cfg.FFmpegPath, audio.WithBitrate(cfg.AudioBitrate)),
		Transcriber: transcriber,
		Summarizer:  summarizer,
		Recorder:    recorder,
	}

	ws := pipeline.Workspace{
		FramesDir: cfg.FramesDir(),
		AudioDir:  cfg.AudioDir(),
	}

	opts = append([]pipeline.Option{
		pipeline.WithSampleOpts(media.SampleOpts{
			IntervalSec: cfg.FrameIntervalSec,
			Scale:       cfg.FrameScale,
		}),
		pipeline.WithStageTimeout(cfg.StageTimeout),
		pipeline.WithLogger(logger),
	}, opts...)

	logger.Info("pipeline configured",
		slog.String("frames_dir", ws.FramesDir),
		slog.String("audio_dir", ws.AudioDir),
		slog.String("frame_policy", string(policy)),
		slog.String("summary_model", summarizer.Model()),
	)
	return pipeline.New(ws, deps, opts...), nil
}

// initStorage creates the upload store, with S3 archiving when configured.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, cfg.UploadDir(), storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.UploadDir())
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("upload_dir", localStore.UploadDir()),
	)
	return localStore, nil
}
