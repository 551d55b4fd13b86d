// Package transcriber plans and executes transcription of converted WAV
// files against the remote whisper service.
package transcriber

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wavscribe/internal/converter"
	"wavscribe/internal/runconfig"
)

// TranscriptionsDir is the output subdirectory of the project root.
const TranscriptionsDir = "transcriptions"

// Job is one (wav, configuration) work item with its deterministic output
// location. Exactly one Job exists per pair per run.
type Job struct {
	Wav        converter.WavFile
	Config     runconfig.Config
	OutputDir  string // absolute
	OutputPath string // absolute transcript path inside OutputDir
	Diarize    bool
}

// Plan is the transcription plan for one run: jobs to execute plus the
// count of pairs skipped because their transcript already exists.
type Plan struct {
	Jobs    []Job
	Skipped int
}

// PlanOptions control transcription planning.
type PlanOptions struct {
	OutputRoot  string // {project}/transcriptions
	Date        string // YYYY-MM-DD
	Tag         string
	Force       bool
	Diarization bool // CLI-level toggle; per-config override wins
}

// BuildPlan pairs every selected configuration with every converted WAV,
// in config-then-file order. A pair whose transcript already exists and is
// non-empty is skipped unless force is set.
func BuildPlan(wavs []converter.WavFile, configs []runconfig.Config, opts PlanOptions) *Plan {
	plan := &Plan{}

	for _, cfg := range configs {
		base := filepath.Join(opts.OutputRoot, opts.Date, cfg.FolderName())
		if opts.Tag != "" {
			base = filepath.Join(base, opts.Tag)
		}

		for _, wav := range wavs {
			relDir := filepath.Dir(wav.RelPath)
			outDir := base
			if relDir != "." {
				outDir = filepath.Join(base, relDir)
			}

			name := strings.TrimSuffix(filepath.Base(wav.RelPath), filepath.Ext(wav.RelPath))
			outPath := filepath.Join(outDir, name+cfg.OutputExt())

			if !opts.Force && transcriptExists(outPath) {
				plan.Skipped++
				continue
			}

			plan.Jobs = append(plan.Jobs, Job{
				Wav:        wav,
				Config:     cfg,
				OutputDir:  outDir,
				OutputPath: outPath,
				Diarize:    diarize(cfg, opts.Diarization),
			})
		}
	}

	return plan
}

// transcriptExists reports a present, non-empty transcript. An empty file
// (from an interrupted run) does not count and is replanned.
func transcriptExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > 0
}

// diarize resolves the effective diarization setting for one job: the
// configuration's own toggle when present, else the CLI flag.
func diarize(cfg runconfig.Config, flag bool) bool {
	if cfg.Diarization != nil {
		return *cfg.Diarization
	}
	return flag
}

// NeedsDiarization reports whether any planned pass will request speaker
// labels, so the token requirement can fail fast before any network call.
func NeedsDiarization(configs []runconfig.Config, flag bool) bool {
	for _, cfg := range configs {
		if diarize(cfg, flag) {
			return true
		}
	}
	return false
}

// EnsureDirs creates every output directory in the plan before any job
// executes. Idempotent across overlapping paths.
func (p *Plan) EnsureDirs() error {
	for _, job := range p.Jobs {
		if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", job.OutputDir, err)
		}
	}
	return nil
}
