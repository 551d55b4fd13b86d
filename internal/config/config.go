package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is looked for in the working directory when
// --settings is not given. A missing default file is not an error.
const DefaultSettingsFile = "wavscribe.yaml"

// DefaultExtensions are the source extensions eligible for conversion
// when --convert-extensions is not given.
const DefaultExtensions = "wma,wmv,mp3,mp4,mkv,aac,flac,ogg,m4a,wav,avi,mov,flv,mpeg,mpg,webm"

type Config struct {
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Logging    LoggingConfig    `yaml:"logging"`
	Summary    SummaryConfig    `yaml:"summary"`

	// Run holds the per-invocation CLI options; never read from YAML.
	Run RunOptions `yaml:"-"`
}

type FFmpegConfig struct {
	Binary     string `yaml:"binary"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	Loudnorm   bool   `yaml:"loudnorm"`
}

type TranscribeConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxAttempts    int `yaml:"max_attempts"`
	BackoffMillis  int `yaml:"backoff_millis"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type SummaryConfig struct {
	Model string `yaml:"model"`
}

// RunOptions are the flag-driven options for one pipeline invocation.
type RunOptions struct {
	ProjectDir        string
	ConfigPath        string
	Extensions        []string
	ForceConvert      bool
	ForceTranscribe   bool
	Tag               string
	NoRecursive       bool
	DryRun            bool
	NoConfigLogs      bool
	RunDescription    string
	EnableDiarization bool
	Watch             bool
	Summarize         bool
	LogLevel          string
}

// Load reads the settings file at path. When the file does not exist and
// path is the default location, built-in defaults are returned instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultSettingsFile {
			if verr := cfg.Validate(); verr != nil {
				return nil, verr
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fills defaults and rejects values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = "ffmpeg"
	}
	if c.FFmpeg.SampleRate == 0 {
		c.FFmpeg.SampleRate = 16000
	}
	if c.FFmpeg.Channels == 0 {
		c.FFmpeg.Channels = 1
	}
	if c.Transcribe.TimeoutSeconds == 0 {
		c.Transcribe.TimeoutSeconds = 600
	}
	if c.Transcribe.MaxAttempts == 0 {
		c.Transcribe.MaxAttempts = 3
	}
	if c.Transcribe.BackoffMillis == 0 {
		c.Transcribe.BackoffMillis = 2000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Summary.Model == "" {
		c.Summary.Model = "gemini-2.5-flash"
	}

	if c.Transcribe.MaxAttempts < 1 {
		return fmt.Errorf("transcribe.max_attempts must be at least 1, got %d", c.Transcribe.MaxAttempts)
	}
	if c.FFmpeg.SampleRate < 0 {
		return fmt.Errorf("ffmpeg.sample_rate must be positive, got %d", c.FFmpeg.SampleRate)
	}

	return nil
}

// Timeout returns the per-call transcription timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Transcribe.TimeoutSeconds) * time.Second
}

// Backoff returns the base backoff between transcription retries.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Transcribe.BackoffMillis) * time.Millisecond
}
