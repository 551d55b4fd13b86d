package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"wavscribe/internal/config"
	"wavscribe/internal/converter"
	"wavscribe/internal/logger"
	"wavscribe/internal/pipeline"
	"wavscribe/internal/summarizer"
	"wavscribe/internal/transcriber"
	"wavscribe/internal/watcher"
	"wavscribe/pkg/executor"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "wavscribe: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx := context.Background()

	settingsPath, runOpts, err := config.ParseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(settingsPath)
	if err != nil {
		return err
	}
	cfg.Run = runOpts

	level := cfg.Logging.Level
	if runOpts.LogLevel != "" {
		level = runOpts.LogLevel
	}
	log := logger.New(level)
	defer log.Sync()

	creds := config.LoadCredentials()
	if err := creds.Validate(runOpts.EnableDiarization, runOpts.Summarize); err != nil {
		return err
	}

	exec := executor.New()
	if !runOpts.DryRun {
		if err := exec.Available(cfg.FFmpeg.Binary); err != nil {
			return err
		}
	}

	backend := transcriber.NewClient(creds, cfg.Timeout(), transcriber.RetryPolicy{
		MaxAttempts: cfg.Transcribe.MaxAttempts,
		Backoff:     cfg.Backoff(),
	}, log)
	p := pipeline.New(cfg, creds, exec, backend, log)

	runOnce := func(ctx context.Context) error {
		if _, err := p.Run(ctx); err != nil {
			return err
		}
		if runOpts.Summarize && !runOpts.DryRun {
			s := summarizer.New(creds.GeminiAPIKeys, cfg.Summary.Model, log)
			root := filepath.Join(runOpts.ProjectDir, transcriber.TranscriptionsDir)
			if err := s.SummarizeTree(ctx, root); err != nil {
				log.Error(ctx, "Summarization: %v", err)
			}
		}
		return nil
	}

	if !runOpts.Watch {
		return runOnce(ctx)
	}

	// Watch mode: run once up front, then re-run on new media.
	if err := runOnce(ctx); err != nil {
		return err
	}

	w, err := watcher.New(filepath.Join(runOpts.ProjectDir, converter.RawAudioDir),
		runOpts.Extensions, 0, func(ctx context.Context) error {
			return runOnce(ctx)
		}, log)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info(ctx, "Press Ctrl+C to stop")
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
