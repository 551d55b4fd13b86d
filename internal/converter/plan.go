// Package converter plans and executes the normalization of source media
// files into mono 16 kHz WAV under the project's converted_wavs tree.
package converter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RawAudioDir is the required input subdirectory of the project root.
	RawAudioDir = "raw_audio"
	// ConvertedDir is the output subdirectory mirroring RawAudioDir.
	ConvertedDir = "converted_wavs"
)

// NotFoundError reports a missing project root or raw_audio directory.
// Fatal to the whole run; no partial planning happens.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("required directory does not exist: %s", e.Path)
}

// MediaFile is a discovered source file, identified by its absolute path.
type MediaFile struct {
	AbsPath string
	RelPath string // relative to raw_audio
}

// WavFile is a converted (or already present) WAV eligible for
// transcription planning.
type WavFile struct {
	AbsPath string
	RelPath string // relative to converted_wavs
}

// Job pairs a source file with its WAV target. SkipExisting marks jobs
// whose target already exists and force was not given; the executor
// reports those without invoking the conversion tool.
type Job struct {
	Source       MediaFile
	Target       string // absolute path under converted_wavs
	RelTarget    string // Target relative to converted_wavs
	SkipExisting bool
}

// Plan is the full conversion plan for one run, recomputed from
// filesystem state on every invocation.
type Plan struct {
	Jobs []Job
	// Dirs are the relative subdirectories seen during the walk, including
	// empty leaves; they are mirrored under converted_wavs before any
	// conversion executes.
	Dirs []string
}

// Options control planning.
type Options struct {
	Extensions []string // lowercase, with leading dot
	Recursive  bool
	Force      bool
}

// BuildPlan walks {projectRoot}/raw_audio and decides which files need
// conversion. Extension matching is case-insensitive.
func BuildPlan(projectRoot string, opts Options) (*Plan, error) {
	if _, err := os.Stat(projectRoot); err != nil {
		return nil, &NotFoundError{Path: projectRoot}
	}
	rawRoot := filepath.Join(projectRoot, RawAudioDir)
	if fi, err := os.Stat(rawRoot); err != nil || !fi.IsDir() {
		return nil, &NotFoundError{Path: rawRoot}
	}

	eligible := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		eligible[strings.ToLower(ext)] = true
	}

	convertedRoot := filepath.Join(projectRoot, ConvertedDir)
	plan := &Plan{}

	err := filepath.WalkDir(rawRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, rerr := filepath.Rel(rawRoot, path)
		if rerr != nil {
			return rerr
		}

		if d.IsDir() {
			if path == rawRoot {
				return nil
			}
			if !opts.Recursive {
				return filepath.SkipDir
			}
			plan.Dirs = append(plan.Dirs, rel)
			return nil
		}

		if !eligible[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		relTarget := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".wav"
		target := filepath.Join(convertedRoot, relTarget)

		job := Job{
			Source:    MediaFile{AbsPath: path, RelPath: rel},
			Target:    target,
			RelTarget: relTarget,
		}
		if !opts.Force {
			if _, serr := os.Stat(target); serr == nil {
				job.SkipExisting = true
			}
		}
		plan.Jobs = append(plan.Jobs, job)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", rawRoot, err)
	}

	return plan, nil
}

// MirrorDirs creates the converted root and every planned subdirectory.
// Idempotent; safe across overlapping paths.
func (p *Plan) MirrorDirs(projectRoot string) error {
	convertedRoot := filepath.Join(projectRoot, ConvertedDir)
	if err := os.MkdirAll(convertedRoot, 0755); err != nil {
		return fmt.Errorf("create %s: %w", convertedRoot, err)
	}
	for _, rel := range p.Dirs {
		dir := filepath.Join(convertedRoot, rel)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
