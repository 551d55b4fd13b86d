package config

import (
	"flag"
	"fmt"
	"strings"
)

// ParseFlags parses CLI arguments (without the program name) into a
// settings path plus RunOptions. The settings file itself is loaded by the
// caller afterwards, so --settings can point anywhere.
func ParseFlags(args []string) (settingsPath string, run RunOptions, err error) {
	fs := flag.NewFlagSet("wavscribe", flag.ContinueOnError)

	var extensions string

	fs.StringVar(&settingsPath, "settings", DefaultSettingsFile, "Optional YAML settings file")
	fs.StringVar(&run.ConfigPath, "configuration", "", "Run-configuration JSON file (default: built-in demo configuration)")
	fs.StringVar(&extensions, "convert-extensions", DefaultExtensions, "Comma-separated source extensions eligible for conversion")
	fs.BoolVar(&run.ForceConvert, "force-convert", false, "Re-convert even when the target WAV exists")
	fs.BoolVar(&run.ForceTranscribe, "force-transcribe", false, "Re-transcribe even when the transcript exists")
	fs.StringVar(&run.Tag, "tag", "", "Extra run subfolder under the configuration folder")
	fs.BoolVar(&run.NoRecursive, "no-recursive", false, "Only scan the top level of raw_audio")
	fs.BoolVar(&run.DryRun, "dry-run", false, "Plan and classify only; write nothing, no network calls")
	fs.BoolVar(&run.NoConfigLogs, "no-config-logs", false, "Skip the companion JSON log per transcription")
	fs.StringVar(&run.RunDescription, "run-description", "", "Select a single configuration by its description")
	fs.BoolVar(&run.EnableDiarization, "enable-diarization", false, "Request speaker labels (requires HUGGINGFACE_TOKEN)")
	fs.BoolVar(&run.Watch, "watch", false, "Keep running and re-run the pipeline when new media appears")
	fs.BoolVar(&run.Summarize, "summarize", false, "Summarize new transcripts to DOCX after transcription")
	fs.StringVar(&run.LogLevel, "log-level", "", "Log level: debug | info | warn | error")

	if err := fs.Parse(args); err != nil {
		return "", RunOptions{}, err
	}

	if fs.NArg() != 1 {
		return "", RunOptions{}, fmt.Errorf("expected exactly one project directory argument, got %d", fs.NArg())
	}
	run.ProjectDir = fs.Arg(0)

	run.Extensions = splitExtensions(extensions)
	if len(run.Extensions) == 0 {
		return "", RunOptions{}, fmt.Errorf("no valid extensions in --convert-extensions %q", extensions)
	}

	return settingsPath, run, nil
}

// splitExtensions normalizes a CSV of extensions to lowercase with a
// leading dot, dropping empty entries.
func splitExtensions(csv string) []string {
	var exts []string
	for _, raw := range strings.Split(csv, ",") {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}
