package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wavscribe/internal/logger"
	"wavscribe/internal/runconfig"
	"wavscribe/internal/subtitle"
)

// RunResult aggregates one transcription stage run.
type RunResult struct {
	Succeeded int
	Failed    int
}

// Runner executes a transcription plan.
type Runner interface {
	Run(ctx context.Context, plan *Plan) *RunResult
}

type implRunner struct {
	backend    Backend
	log        logger.Logger
	endpoint   string
	configLogs bool
	now        func() time.Time
}

// NewRunner creates a Runner. configLogs controls the companion JSON log
// per job; endpoint is recorded in those logs.
func NewRunner(backend Backend, log logger.Logger, endpoint string, configLogs bool) Runner {
	return &implRunner{
		backend:    backend,
		log:        log,
		endpoint:   endpoint,
		configLogs: configLogs,
		now:        time.Now,
	}
}

// Run processes every planned job sequentially. A failed job is logged,
// counted, and never aborts the run.
func (r *implRunner) Run(ctx context.Context, plan *Plan) *RunResult {
	res := &RunResult{}
	total := len(plan.Jobs)

	for i, job := range plan.Jobs {
		r.log.Info(ctx, "[%d/%d] Transcribing %s with %s",
			i+1, total, job.Wav.RelPath, job.Config.FolderName())

		if err := r.runJob(ctx, job); err != nil {
			r.log.Error(ctx, "Transcription failed: %s (%s): %v",
				job.Wav.RelPath, job.Config.FolderName(), err)
			res.Failed++
			continue
		}
		res.Succeeded++
	}

	return res
}

// runJob calls the backend and persists the transcript with its
// companions. The transcript and its log land together or not at all: any
// write failure after the transcript removes it again so the pair is
// replanned next run. Under process interruption this is best-effort.
func (r *implRunner) runJob(ctx context.Context, job Job) error {
	startedAt := r.now()

	result, err := r.backend.Transcribe(ctx, job.Wav.AbsPath, job.Config, job.Diarize)
	if err != nil {
		return err
	}
	finishedAt := r.now()

	srt := subtitle.RenderSRT(result.Segments)
	if err := os.WriteFile(job.OutputPath, []byte(srt), 0644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	if err := r.writeCompanions(job, result, startedAt, finishedAt); err != nil {
		r.removeArtifacts(job)
		return err
	}

	r.log.Info(ctx, "Saved transcript: %s", job.OutputPath)
	return nil
}

func (r *implRunner) writeCompanions(job Job, result *Result, startedAt, finishedAt time.Time) error {
	if job.Config.OutputExt() == ".srt" {
		srt, err := os.ReadFile(job.OutputPath)
		if err != nil {
			return fmt.Errorf("reread transcript: %w", err)
		}
		txtPath := strings.TrimSuffix(job.OutputPath, ".srt") + ".txt"
		if err := os.WriteFile(txtPath, []byte(subtitle.PlainText(string(srt))), 0644); err != nil {
			return fmt.Errorf("write text companion: %w", err)
		}
	}

	if !r.configLogs {
		return nil
	}

	entry := jobLog{
		SourceWav:        job.Wav.AbsPath,
		RelativePath:     filepath.ToSlash(job.Wav.RelPath),
		OutputPath:       job.OutputPath,
		Endpoint:         r.endpoint,
		StartedAt:        startedAt.UTC(),
		FinishedAt:       finishedAt.UTC(),
		Description:      job.Config.Description,
		Model:            job.Config.Model,
		Language:         job.Config.Language,
		DetectedLanguage: result.Language,
		Parameters:       job.Config,
	}
	data, err := json.MarshalIndent(entry, "", "    ")
	if err != nil {
		return fmt.Errorf("encode job log: %w", err)
	}
	if err := os.WriteFile(LogPath(job), data, 0644); err != nil {
		return fmt.Errorf("write job log: %w", err)
	}
	return nil
}

// removeArtifacts deletes whatever the job managed to write, so a
// half-finished pair never survives as a non-empty transcript.
func (r *implRunner) removeArtifacts(job Job) {
	_ = os.Remove(job.OutputPath)
	if job.Config.OutputExt() == ".srt" {
		_ = os.Remove(strings.TrimSuffix(job.OutputPath, ".srt") + ".txt")
	}
}

// jobLog is the companion record written next to each transcript.
type jobLog struct {
	SourceWav        string           `json:"source_wav"`
	RelativePath     string           `json:"relative_path"`
	OutputPath       string           `json:"transcription_output_path"`
	Endpoint         string           `json:"backend_endpoint"`
	StartedAt        time.Time        `json:"started_at_utc"`
	FinishedAt       time.Time        `json:"finished_at_utc"`
	Description      string           `json:"configuration_description"`
	Model            string           `json:"configuration_model"`
	Language         string           `json:"configuration_language"`
	DetectedLanguage string           `json:"detected_language,omitempty"`
	Parameters       runconfig.Config `json:"all_parameters_used"`
}

// LogPath returns the companion log location for a job:
// {basename}__{config folder}.log.json next to the transcript.
func LogPath(job Job) string {
	base := strings.TrimSuffix(filepath.Base(job.OutputPath), filepath.Ext(job.OutputPath))
	return filepath.Join(job.OutputDir, base+"__"+job.Config.FolderName()+".log.json")
}
