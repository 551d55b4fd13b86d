package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Credentials holds everything the executors read from the environment.
// Loaded once at startup and passed in at construction; nothing reads the
// environment mid-pipeline.
type Credentials struct {
	Username         string
	Password         string
	Endpoint         string
	DiarizationToken string
	GeminiAPIKeys    []string
}

// LoadCredentials reads a .env file when present, then the process
// environment. Empty basic-auth fields mean anonymous access.
func LoadCredentials() Credentials {
	_ = godotenv.Load()

	return Credentials{
		Username:         os.Getenv("BASIC_AUTH_USERNAME"),
		Password:         os.Getenv("BASIC_AUTH_PASSWORD"),
		Endpoint:         strings.TrimRight(os.Getenv("WHISPER_ENDPOINT"), "/"),
		DiarizationToken: os.Getenv("HUGGINGFACE_TOKEN"),
		GeminiAPIKeys:    splitKeys(os.Getenv("GEMINI_API_KEYS")),
	}
}

// Validate fails fast, before any job executes, when a credential required
// by the requested features is missing.
func (c Credentials) Validate(diarization, summarize bool) error {
	if c.Endpoint == "" {
		return fmt.Errorf("WHISPER_ENDPOINT is not set")
	}
	if diarization && c.DiarizationToken == "" {
		return fmt.Errorf("--enable-diarization requires HUGGINGFACE_TOKEN to be set")
	}
	if summarize && len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("--summarize requires GEMINI_API_KEYS to be set")
	}
	return nil
}

func splitKeys(csv string) []string {
	var keys []string
	for _, raw := range strings.Split(csv, ",") {
		if key := strings.TrimSpace(raw); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
