package summarizer

import (
	"context"

	"wavscribe/internal/logger"
)

type implSummarizer struct {
	apiKeys    []string
	currentKey int
	model      string
	logger     logger.Logger

	// generate is swapped out in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

// New creates a Summarizer that rotates through the supplied Gemini API
// keys when one is rate limited.
func New(apiKeys []string, model string, log logger.Logger) Summarizer {
	s := &implSummarizer{
		apiKeys: apiKeys,
		model:   model,
		logger:  log,
	}
	s.generate = s.callGemini
	return s
}
