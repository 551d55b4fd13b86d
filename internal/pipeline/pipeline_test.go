package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wavscribe/internal/config"
	"wavscribe/internal/converter"
	"wavscribe/internal/logger"
	"wavscribe/internal/runconfig"
	"wavscribe/internal/subtitle"
	"wavscribe/internal/transcriber"
)

type fakeExecutor struct {
	calls int
}

func (e *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	e.calls++
	target := args[len(args)-1]
	if err := os.WriteFile(target, []byte("RIFF"), 0644); err != nil {
		return "", err
	}
	return "", nil
}

func (e *fakeExecutor) Available(name string) error { return nil }

type fakeBackend struct {
	failOn string
	calls  int
}

func (b *fakeBackend) Transcribe(ctx context.Context, wavPath string, cfg runconfig.Config, diarize bool) (*transcriber.Result, error) {
	b.calls++
	if b.failOn != "" && strings.Contains(wavPath, b.failOn) {
		return nil, errors.New("transcription service returned 500")
	}
	return &transcriber.Result{
		Language: "sv",
		Segments: []subtitle.Segment{{Start: 0, End: 1, Text: "hej"}},
	}, nil
}

func mkProject(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(root, converter.RawAudioDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("media"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func writeRunConfig(t *testing.T, descriptions ...string) string {
	t.Helper()
	var entries []string
	for _, d := range descriptions {
		entries = append(entries, `{"description":"`+d+`","model":"large-v2"}`)
	}
	path := filepath.Join(t.TempDir(), "configs.json")
	body := `{"run_configuration":[` + strings.Join(entries, ",") + `]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testPipeline(t *testing.T, run config.RunOptions, exec *fakeExecutor, backend *fakeBackend) Pipeline {
	t.Helper()
	cfg := &config.Config{Run: run}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	creds := config.Credentials{Endpoint: "http://whisper:9000", DiarizationToken: "hf"}
	return New(cfg, creds, exec, backend, logger.NewNop())
}

func baseRun(projectDir, configPath string) config.RunOptions {
	return config.RunOptions{
		ProjectDir: projectDir,
		ConfigPath: configPath,
		Extensions: []string{".mp3", ".wav"},
	}
}

func TestRunEndToEnd(t *testing.T) {
	root := mkProject(t, "a.mp3", filepath.Join("talks", "b.mp3"))
	run := baseRun(root, writeRunConfig(t, "cfg_a"))

	exec := &fakeExecutor{}
	backend := &fakeBackend{}
	stats, err := testPipeline(t, run, exec, backend).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Converted != 2 || stats.Transcribed != 2 || stats.Failures() != 0 {
		t.Errorf("stats = %+v", stats)
	}

	transcript := filepath.Join(root, transcriber.TranscriptionsDir, stats.Date, "cfg_a", "talks", "b.srt")
	if _, err := os.Stat(transcript); err != nil {
		t.Errorf("nested transcript not written: %v", err)
	}
	if _, err := os.Stat(strings.TrimSuffix(transcript, ".srt") + ".txt"); err != nil {
		t.Errorf("text companion not written: %v", err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	root := mkProject(t, "a.mp3")
	run := baseRun(root, writeRunConfig(t, "cfg_a"))

	exec := &fakeExecutor{}
	backend := &fakeBackend{}
	p := testPipeline(t, run, exec, backend)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if stats.Converted != 0 || stats.ConvertSkipped != 1 {
		t.Errorf("second run reconverted: %+v", stats)
	}
	if stats.Transcribed != 0 || stats.TranscriptSkipped != 1 {
		t.Errorf("second run retranscribed: %+v", stats)
	}
	if exec.calls != 1 || backend.calls != 1 {
		t.Errorf("exec calls = %d, backend calls = %d, want 1/1", exec.calls, backend.calls)
	}
}

func TestRunRetriesOnlyFailedPairs(t *testing.T) {
	root := mkProject(t, "a.mp3", "broken.mp3")
	run := baseRun(root, writeRunConfig(t, "cfg_a"))
	exec := &fakeExecutor{}

	backend := &fakeBackend{failOn: "broken"}
	p := testPipeline(t, run, exec, backend)
	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("per-job failure must not abort the run: %v", err)
	}
	if stats.Transcribed != 1 || stats.TranscribeFailed != 1 {
		t.Errorf("first run stats = %+v", stats)
	}

	backend.failOn = ""
	backend.calls = 0
	stats, err = testPipeline(t, run, exec, backend).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if backend.calls != 1 || stats.Transcribed != 1 || stats.TranscriptSkipped != 1 {
		t.Errorf("second run should retry only the failed pair: calls = %d, stats = %+v", backend.calls, stats)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := mkProject(t, "a.mp3", filepath.Join("sub", "b.mp3"))
	run := baseRun(root, writeRunConfig(t, "cfg_a"))
	run.DryRun = true

	exec := &fakeExecutor{}
	backend := &fakeBackend{}
	dry, err := testPipeline(t, run, exec, backend).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if exec.calls != 0 || backend.calls != 0 {
		t.Errorf("dry run touched tools: exec = %d, backend = %d", exec.calls, backend.calls)
	}
	if _, err := os.Stat(filepath.Join(root, converter.ConvertedDir)); !os.IsNotExist(err) {
		t.Error("dry run created converted_wavs")
	}
	if _, err := os.Stat(filepath.Join(root, transcriber.TranscriptionsDir)); !os.IsNotExist(err) {
		t.Error("dry run created transcriptions")
	}

	// Same classification as a real run.
	run.DryRun = false
	wet, err := testPipeline(t, run, exec, backend).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if dry.Converted != wet.Converted || dry.JobsPlanned != wet.JobsPlanned {
		t.Errorf("dry run classification differs: dry = %+v, real = %+v", dry, wet)
	}
}

func TestRunSelectsConfiguration(t *testing.T) {
	root := mkProject(t, "a.mp3")
	run := baseRun(root, writeRunConfig(t, "cfg_a", "cfg_b"))
	run.RunDescription = "cfg_b"

	exec := &fakeExecutor{}
	backend := &fakeBackend{}
	stats, err := testPipeline(t, run, exec, backend).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Configurations != 1 || stats.Transcribed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(root, transcriber.TranscriptionsDir, stats.Date, "cfg_b", "a.srt")); err != nil {
		t.Errorf("selected configuration output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, transcriber.TranscriptionsDir, stats.Date, "cfg_a")); !os.IsNotExist(err) {
		t.Error("unselected configuration produced output")
	}

	run.RunDescription = "missing"
	if _, err := testPipeline(t, run, exec, backend).Run(context.Background()); err == nil {
		t.Fatal("unknown --run-description must be fatal")
	}
}

func TestRunFailsFastWithoutDiarizationToken(t *testing.T) {
	root := mkProject(t, "a.mp3")
	run := baseRun(root, writeRunConfig(t, "cfg_a"))
	run.EnableDiarization = true

	cfg := &config.Config{Run: run}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	exec := &fakeExecutor{}
	backend := &fakeBackend{}
	p := New(cfg, config.Credentials{Endpoint: "http://whisper:9000"}, exec, backend, logger.NewNop())

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected fatal error for missing diarization token")
	}
	if exec.calls != 0 || backend.calls != 0 {
		t.Error("no job may run before the token check")
	}
}

func TestRunMissingRawAudioIsFatal(t *testing.T) {
	root := t.TempDir() // no raw_audio inside
	run := baseRun(root, writeRunConfig(t, "cfg_a"))

	_, err := testPipeline(t, run, &fakeExecutor{}, &fakeBackend{}).Run(context.Background())
	var notFound *converter.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}
