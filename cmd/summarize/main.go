// Package main runs the summarization pipeline once on a local video file
// and prints the resulting summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/maauso/video-summarizer/internal/bootstrap"
	"github.com/maauso/video-summarizer/internal/config"
	"github.com/maauso/video-summarizer/internal/job/id"
	"github.com/maauso/video-summarizer/internal/pipeline"
)

var errUsage = errors.New("usage: summarize [-interval seconds] [-transcript] <video>")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	interval := fs.Float64("interval", 0, "frame sampling interval in seconds (default FRAME_INTERVAL_SEC)")
	showTranscript := fs.Bool("transcript", false, "print the transcript before the summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	videoPath := fs.Arg(0)
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := bootstrap.NewRecords(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = records.Close() }()

	orch, err := bootstrap.NewOrchestrator(cfg, records, logger)
	if err != nil {
		return err
	}

	progress := pipeline.ObserverFunc(func(_ context.Context, t pipeline.Transition) {
		logger.Info("stage", slog.String("state", string(t.To)), slog.Duration("elapsed", t.Elapsed))
	})

	res, err := orch.Run(ctx, pipeline.Input{
		RunID:       id.Generate(),
		VideoPath:   videoPath,
		Filename:    filepath.Base(videoPath),
		IntervalSec: *interval,
	}, progress)
	if err != nil {
		return err
	}

	if *showTranscript {
		fmt.Printf("%s\n\n", res.Transcript)
	}
	fmt.Println(res.Summary)
	logger.Info("summary saved",
		slog.Int64("id", res.Ack.ID),
		slog.String("collection", res.Ack.Collection),
		slog.Int("frames", res.FrameCount),
	)
	return nil
}
