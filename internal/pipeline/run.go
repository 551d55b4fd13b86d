// Package pipeline wires the conversion and transcription stages into one
// batch run over a project directory.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"wavscribe/internal/config"
	"wavscribe/internal/converter"
	"wavscribe/internal/logger"
	"wavscribe/internal/runconfig"
	"wavscribe/internal/transcriber"
	"wavscribe/pkg/executor"
)

// Pipeline runs the whole batch once: plan, convert, transcribe, report.
type Pipeline interface {
	Run(ctx context.Context) (*Stats, error)
}

type implPipeline struct {
	cfg     *config.Config
	creds   config.Credentials
	exec    executor.Executor
	backend transcriber.Backend
	log     logger.Logger
	now     func() time.Time
}

// New creates a Pipeline. The backend is constructed by the caller so the
// remote client and its retry policy are fixed before any run starts.
func New(cfg *config.Config, creds config.Credentials, exec executor.Executor, backend transcriber.Backend, log logger.Logger) Pipeline {
	return &implPipeline{
		cfg:     cfg,
		creds:   creds,
		exec:    exec,
		backend: backend,
		log:     log,
		now:     time.Now,
	}
}

// Run executes one full pass. Configuration problems and a missing input
// tree are fatal and abort before any job; individual job failures are
// counted in the returned Stats and never abort the run.
func (p *implPipeline) Run(ctx context.Context) (*Stats, error) {
	run := p.cfg.Run
	startedAt := p.now()

	configs, err := p.selectConfigs()
	if err != nil {
		return nil, err
	}

	if transcriber.NeedsDiarization(configs, run.EnableDiarization) && p.creds.DiarizationToken == "" {
		return nil, fmt.Errorf("diarization requested but HUGGINGFACE_TOKEN is not set")
	}

	convPlan, err := converter.BuildPlan(run.ProjectDir, converter.Options{
		Extensions: run.Extensions,
		Recursive:  !run.NoRecursive,
		Force:      run.ForceConvert,
	})
	if err != nil {
		return nil, err
	}
	p.log.Info(ctx, "Found %d media file(s) under %s", len(convPlan.Jobs),
		filepath.Join(run.ProjectDir, converter.RawAudioDir))

	conv, err := converter.New(p.cfg, p.exec, p.log).Run(ctx, run.ProjectDir, convPlan)
	if err != nil {
		return nil, err
	}

	date := p.now().Format("2006-01-02")
	tPlan := transcriber.BuildPlan(conv.Wavs, configs, transcriber.PlanOptions{
		OutputRoot:  filepath.Join(run.ProjectDir, transcriber.TranscriptionsDir),
		Date:        date,
		Tag:         run.Tag,
		Force:       run.ForceTranscribe,
		Diarization: run.EnableDiarization,
	})

	stats := &Stats{
		Date:              date,
		Configurations:    len(configs),
		MediaFound:        len(convPlan.Jobs),
		Converted:         conv.Converted,
		ConvertSkipped:    conv.Skipped,
		ConvertFailed:     conv.Failed,
		JobsPlanned:       len(tPlan.Jobs),
		TranscriptSkipped: tPlan.Skipped,
	}

	if run.DryRun {
		for _, job := range tPlan.Jobs {
			p.log.Info(ctx, "[DRY] Would transcribe %s with %s -> %s",
				job.Wav.RelPath, job.Config.FolderName(), job.OutputPath)
		}
	} else {
		if err := tPlan.EnsureDirs(); err != nil {
			return nil, err
		}
		res := transcriber.NewRunner(p.backend, p.log, p.creds.Endpoint, !run.NoConfigLogs).Run(ctx, tPlan)
		stats.Transcribed = res.Succeeded
		stats.TranscribeFailed = res.Failed
	}

	stats.Elapsed = p.now().Sub(startedAt)
	p.report(ctx, stats, run.DryRun)
	return stats, nil
}

// selectConfigs loads the run-configuration file (or the built-in demo)
// and narrows it to one entry when --run-description is given.
func (p *implPipeline) selectConfigs() ([]runconfig.Config, error) {
	configs, err := runconfig.Load(p.cfg.Run.ConfigPath)
	if err != nil {
		return nil, err
	}
	if desc := p.cfg.Run.RunDescription; desc != "" {
		return runconfig.Select(configs, desc)
	}
	return configs, nil
}
