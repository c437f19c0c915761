// Package pipeline runs one video through sampling, encoding, audio
// extraction, transcription, summarization and persistence as an explicit
// state machine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maauso/video-summarizer/internal/audio"
	"github.com/maauso/video-summarizer/internal/failure"
	"github.com/maauso/video-summarizer/internal/media"
	"github.com/maauso/video-summarizer/internal/record"
	"github.com/maauso/video-summarizer/internal/summarize"
	"github.com/maauso/video-summarizer/internal/transcribe"
)

// FrameEncoder turns frame files into payloads in sequence order.
type FrameEncoder interface {
	Encode(ctx context.Context, paths []string) ([]string, error)
}

// Recorder persists a finished summary.
type Recorder interface {
	Save(ctx context.Context, d record.Draft) (record.Ack, error)
}

// Workspace holds the directories a run writes to. Two orchestrators must
// not share a Workspace while both are running.
type Workspace struct {
	FramesDir string
	AudioDir  string
}

// Input describes one run.
type Input struct {
	// RunID correlates logs and transitions, e.g. a job ID. Optional.
	RunID string
	// VideoPath is the video to summarize.
	VideoPath string
	// Filename is stored with the record. Defaults to the base of VideoPath.
	Filename string
	// IntervalSec overrides the sampling interval when positive.
	IntervalSec float64
}

// Result is what a completed run hands back.
type Result struct {
	FrameCount int
	AudioPath  string
	Transcript string
	Summary    string
	Ack        record.Ack
}

// Orchestrator runs the pipeline stages in order.
type Orchestrator struct {
	workspace    Workspace
	sampler      media.FrameSampler
	encoder      FrameEncoder
	extractor    audio.Extractor
	transcriber  transcribe.Transcriber
	summarizer   summarize.Summarizer
	recorder     Recorder
	sampleOpts   media.SampleOpts
	stageTimeout time.Duration
	observers    []Observer
	logger       *slog.Logger
}

// Deps groups the collaborators of an Orchestrator.
type Deps struct {
	Sampler     media.FrameSampler
	Encoder     FrameEncoder
	Extractor   audio.Extractor
	Transcriber transcribe.Transcriber
	Summarizer  summarize.Summarizer
	Recorder    Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSampleOpts sets the default sampling options.
func WithSampleOpts(opts media.SampleOpts) Option {
	return func(o *Orchestrator) {
		o.sampleOpts = opts
	}
}

// WithStageTimeout bounds every stage. Zero disables the bound.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.stageTimeout = d
		}
	}
}

// WithObserver adds an observer notified of every transition of every run.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator bound to ws.
func New(ws Workspace, deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		workspace:   ws,
		sampler:     deps.Sampler,
		encoder:     deps.Encoder,
		extractor:   deps.Extractor,
		transcriber: deps.Transcriber,
		summarizer:  deps.Summarizer,
		recorder:    deps.Recorder,
		sampleOpts:  media.DefaultSampleOpts(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Workspace returns the directories the orchestrator writes to.
func (o *Orchestrator) Workspace() Workspace {
	return o.workspace
}

// runData is the single value threaded through the stages. Each stage reads
// the output of the previous one and fills in its own.
type runData struct {
	input     Input
	frames    []string
	payloads  []string
	audioPath string
	result    Result
}

type stage struct {
	state State
	exec  func(ctx context.Context, d *runData) error
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{StateSampling, o.sample},
		{StateEncoding, o.encode},
		{StateExtractingAudio, o.extractAudio},
		{StateTranscribing, o.transcribe},
		{StateSummarizing, o.summarize},
		{StatePersisting, o.persist},
	}
}

// Run executes every stage in order. The first failing stage ends the run
// with a *StageError; files and records written before it stay in place.
// Extra observers apply to this run only.
func (o *Orchestrator) Run(ctx context.Context, in Input, observers ...Observer) (*Result, error) {
	if in.Filename == "" {
		in.Filename = filepath.Base(in.VideoPath)
	}

	t := &tracker{
		runID:     in.RunID,
		state:     StateReceived,
		entered:   time.Now(),
		observers: append(append([]Observer{}, o.observers...), observers...),
	}
	logger := o.logger.With(slog.String("run_id", in.RunID), slog.String("video", in.VideoPath))
	logger.Info("pipeline started")

	d := &runData{input: in}
	for _, st := range o.stages() {
		if err := t.move(ctx, st.state, nil); err != nil {
			return nil, err
		}
		logger.Debug("stage started", slog.String("stage", string(st.state)))

		if err := o.exec(ctx, st, d); err != nil {
			serr := &StageError{Stage: st.state, Err: err}
			logger.Error("pipeline failed",
				slog.String("stage", string(st.state)),
				slog.String("kind", failure.KindOf(err)),
				slog.String("error", err.Error()),
			)
			_ = t.move(ctx, StateFailed, serr)
			return nil, serr
		}
	}
	if err := t.move(ctx, StateCompleted, nil); err != nil {
		return nil, err
	}

	logger.Info("pipeline completed",
		slog.Int("frames", d.result.FrameCount),
		slog.Int64("record_id", d.result.Ack.ID),
	)
	result := d.result
	return &result, nil
}

// exec runs one stage under the stage deadline and gives uncategorised
// errors, including an expired deadline, the stage's failure kind.
func (o *Orchestrator) exec(ctx context.Context, st stage, d *runData) error {
	sctx, cancel := ctx, context.CancelFunc(func() {})
	if o.stageTimeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
	}
	defer cancel()

	err := sctx.Err()
	if err == nil {
		err = st.exec(sctx, d)
	}
	if err == nil {
		return nil
	}
	if !failure.HasKind(err) {
		err = fmt.Errorf("%w: %w", stageKinds[st.state], err)
	}
	return err
}

func (o *Orchestrator) sample(ctx context.Context, d *runData) error {
	dir := o.workspace.FramesDir
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create frames dir: %w", failure.ErrIO, err)
	}
	if err := media.ClearFrames(dir); err != nil {
		return err
	}

	opts := o.sampleOpts
	if d.input.IntervalSec > 0 {
		opts.IntervalSec = d.input.IntervalSec
	}
	frames, err := o.sampler.SampleFrames(ctx, d.input.VideoPath, dir, opts)
	if err != nil {
		return err
	}
	d.frames = frames
	return nil
}

func (o *Orchestrator) encode(ctx context.Context, d *runData) error {
	payloads, err := o.encoder.Encode(ctx, d.frames)
	if err != nil {
		return err
	}
	d.payloads = payloads
	d.result.FrameCount = len(payloads)
	return nil
}

func (o *Orchestrator) extractAudio(ctx context.Context, d *runData) error {
	dir := o.workspace.AudioDir
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create audio dir: %w", failure.ErrIO, err)
	}
	path := filepath.Join(dir, audio.FileName(d.input.VideoPath))
	if err := o.extractor.Extract(ctx, d.input.VideoPath, path); err != nil {
		return err
	}
	d.audioPath = path
	d.result.AudioPath = path
	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, d *runData) error {
	text, err := o.transcriber.Transcribe(ctx, d.audioPath)
	if err != nil {
		return err
	}
	d.result.Transcript = text
	return nil
}

func (o *Orchestrator) summarize(ctx context.Context, d *runData) error {
	summary, err := o.summarizer.Summarize(ctx, d.payloads, d.result.Transcript)
	if err != nil {
		return err
	}
	d.result.Summary = summary
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, d *runData) error {
	ack, err := o.recorder.Save(ctx, record.Draft{
		Filename:   d.input.Filename,
		Transcript: d.result.Transcript,
		Summary:    d.result.Summary,
	})
	if err != nil {
		return err
	}
	d.result.Ack = ack
	return nil
}

// tracker enforces the transition table and notifies observers.
type tracker struct {
	runID     string
	state     State
	entered   time.Time
	observers []Observer
}

func (t *tracker) move(ctx context.Context, to State, cause error) error {
	if !CanTransition(t.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.state, to)
	}
	now := time.Now()
	tr := Transition{
		RunID:   t.runID,
		From:    t.state,
		To:      to,
		Elapsed: now.Sub(t.entered),
		Err:     cause,
	}
	t.state = to
	t.entered = now
	for _, obs := range t.observers {
		obs.OnTransition(ctx, tr)
	}
	return nil
}
