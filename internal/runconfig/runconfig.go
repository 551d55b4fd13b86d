// Package runconfig loads the named transcription configurations that
// drive one or more transcription passes over the converted audio.
package runconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DemoConfig is used when no --configuration file is given.
const DemoConfig = `{
    "run_configuration": [
        {
            "description": "swedish_large_v2_with_vad_0.5",
            "language": "swedish",
            "model": "large-v2",
            "file_format": "SRT",
            "vad": true,
            "vad_speech_threshold": 0.5
        }
    ]
}`

// Config is one named transcription configuration. Immutable after load;
// each selected Config yields an independent pass over all converted files.
type Config struct {
	Description        string   `json:"description"`
	Language           string   `json:"language"`
	Model              string   `json:"model"`
	TranslateToEnglish bool     `json:"translate_to_english"`
	ComputeType        string   `json:"compute_type"`
	FileFormat         string   `json:"file_format"`
	VAD                bool     `json:"vad"`
	VADSpeechThreshold *float64 `json:"vad_speech_threshold,omitempty"`
	Diarization        *bool    `json:"diarization,omitempty"`
}

type fileSchema struct {
	RunConfiguration []Config `json:"run_configuration"`
}

// NotFoundError reports that --run-description matched no configuration.
type NotFoundError struct {
	Description string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no configuration with description %q", e.Description)
}

// Load reads and validates the configuration file at path, preserving the
// order of entries. An empty path loads the built-in demo configuration.
func Load(path string) ([]Config, error) {
	raw := []byte(DemoConfig)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read configuration %s: %w", path, err)
		}
		raw = data
	}
	return Parse(raw)
}

// Parse decodes the run-configuration JSON and applies per-entry defaults.
func Parse(data []byte) ([]Config, error) {
	var file fileSchema
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if file.RunConfiguration == nil {
		return nil, fmt.Errorf("configuration has no run_configuration key")
	}
	if len(file.RunConfiguration) == 0 {
		return nil, fmt.Errorf("run_configuration is empty")
	}

	configs := file.RunConfiguration
	for i := range configs {
		if err := configs[i].applyDefaults(); err != nil {
			return nil, fmt.Errorf("configuration entry %d: %w", i, err)
		}
	}
	return configs, nil
}

func (c *Config) applyDefaults() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Language == "" {
		c.Language = "Automatic Detection"
	}
	if c.ComputeType == "" {
		c.ComputeType = "float16"
	}
	if c.FileFormat == "" {
		c.FileFormat = "SRT"
	}
	if c.VAD && c.VADSpeechThreshold == nil {
		threshold := 0.5
		c.VADSpeechThreshold = &threshold
	}
	return nil
}

// Select filters configs to the single entry whose description matches
// exactly. An empty description returns configs unchanged.
func Select(configs []Config, description string) ([]Config, error) {
	if description == "" {
		return configs, nil
	}
	for _, c := range configs {
		if c.Description == description {
			return []Config{c}, nil
		}
	}
	return nil, &NotFoundError{Description: description}
}

// OutputExt returns the transcript extension for this configuration.
// An unset FileFormat means SRT, matching applyDefaults, so a zero-value
// Config never yields an extensionless path.
func (c Config) OutputExt() string {
	if c.FileFormat == "" {
		return ".srt"
	}
	return "." + strings.ToLower(c.FileFormat)
}

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reForbidden  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// FolderName returns the sanitized directory segment for this
// configuration: the description when set, else the model. Whitespace
// becomes underscores, everything outside [A-Za-z0-9_-] is dropped, and
// the result is capped at 200 characters.
func (c Config) FolderName() string {
	name := c.Description
	if name == "" {
		name = c.Model
	}
	if name == "" {
		return "unnamed_configuration"
	}

	name = reWhitespace.ReplaceAllString(name, "_")
	name = reForbidden.ReplaceAllString(name, "")
	if len(name) > 200 {
		name = name[:200]
	}
	if name == "" {
		return "sanitized_empty_name"
	}
	return name
}
