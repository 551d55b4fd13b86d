package pipeline

import (
	"context"
	"time"
)

// Stats summarizes one pipeline run. Skipped work is counted separately
// from executed work so repeated runs over an unchanged tree are visible
// as all-skip reports.
type Stats struct {
	Date           string
	Configurations int

	MediaFound     int
	Converted      int
	ConvertSkipped int
	ConvertFailed  int

	JobsPlanned       int
	TranscriptSkipped int
	Transcribed       int
	TranscribeFailed  int

	Elapsed time.Duration
}

// Failures reports the total failed jobs across both stages.
func (s *Stats) Failures() int {
	return s.ConvertFailed + s.TranscribeFailed
}

func (p *implPipeline) report(ctx context.Context, s *Stats, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "[DRY] "
	}

	p.log.Info(ctx, "%sConversion: %d found, %d converted, %d skipped, %d failed",
		prefix, s.MediaFound, s.Converted, s.ConvertSkipped, s.ConvertFailed)
	p.log.Info(ctx, "%sTranscription: %d configuration(s), %d planned, %d skipped, %d done, %d failed",
		prefix, s.Configurations, s.JobsPlanned, s.TranscriptSkipped, s.Transcribed, s.TranscribeFailed)
	p.log.Info(ctx, "%sRun finished in %s", prefix, s.Elapsed.Round(time.Millisecond))

	if s.Failures() > 0 {
		p.log.Warn(ctx, "%d job(s) failed; rerun to retry them", s.Failures())
	}
}
