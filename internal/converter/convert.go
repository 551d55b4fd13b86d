package converter

import (
	"context"
	"os"
	"strconv"

	"wavscribe/internal/config"
	"wavscribe/internal/logger"
	"wavscribe/pkg/executor"
)

// Result aggregates one conversion stage run. Wavs lists every target that
// exists (or, in dry-run, would exist) after the stage: converted plus
// skipped-existing, in plan order. Failed sources are excluded.
type Result struct {
	Wavs      []WavFile
	Converted int
	Skipped   int
	Failed    int
}

type implConverter struct {
	cfg  *config.Config
	exec executor.Executor
	log  logger.Logger
}

// Converter executes a conversion plan.
type Converter interface {
	Run(ctx context.Context, projectRoot string, plan *Plan) (*Result, error)
}

// New creates a Converter instance.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Converter {
	return &implConverter{cfg: cfg, exec: exec, log: log}
}

// Run executes every planned job sequentially. A failed conversion is
// logged and excluded from the result, never aborting the run. In dry-run
// mode classification is identical but nothing is written.
func (c *implConverter) Run(ctx context.Context, projectRoot string, plan *Plan) (*Result, error) {
	dryRun := c.cfg.Run.DryRun

	if !dryRun {
		if err := plan.MirrorDirs(projectRoot); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	total := len(plan.Jobs)

	for i, job := range plan.Jobs {
		wav := WavFile{AbsPath: job.Target, RelPath: job.RelTarget}

		if job.SkipExisting {
			c.log.Info(ctx, "[%d/%d] Skip (exists): %s", i+1, total, job.RelTarget)
			res.Skipped++
			res.Wavs = append(res.Wavs, wav)
			continue
		}

		if dryRun {
			c.log.Info(ctx, "[%d/%d] [DRY] Would convert: %s -> %s", i+1, total, job.Source.RelPath, job.RelTarget)
			res.Converted++
			res.Wavs = append(res.Wavs, wav)
			continue
		}

		c.log.Info(ctx, "[%d/%d] Converting: %s -> %s", i+1, total, job.Source.RelPath, job.RelTarget)
		if err := c.convert(ctx, job); err != nil {
			c.log.Error(ctx, "Conversion failed: %s: %v", job.Source.RelPath, err)
			res.Failed++
			continue
		}
		res.Converted++
		res.Wavs = append(res.Wavs, wav)
	}

	return res, nil
}

// convert invokes ffmpeg for one job: mono, 16 kHz, 16-bit PCM WAV, with
// an optional loudnorm filter. A partial target is removed on failure so
// the next run replans the file.
func (c *implConverter) convert(ctx context.Context, job Job) error {
	args := []string{
		"-i", job.Source.AbsPath,
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(c.cfg.FFmpeg.Channels),
		"-ar", strconv.Itoa(c.cfg.FFmpeg.SampleRate),
		"-vn",
	}
	if c.cfg.FFmpeg.Loudnorm {
		args = append(args, "-af", "loudnorm=I=-16:TP=-1.5:LRA=11")
	}
	args = append(args,
		"-loglevel", "error",
		"-y",
		job.Target,
	)

	if _, err := c.exec.Execute(ctx, c.cfg.FFmpeg.Binary, args...); err != nil {
		if _, serr := os.Stat(job.Target); serr == nil {
			_ = os.Remove(job.Target)
		}
		return err
	}
	return nil
}
