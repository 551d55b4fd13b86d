// Package summarizer produces DOCX summaries of finished transcripts via
// the Gemini API.
package summarizer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"google.golang.org/genai"

	"wavscribe/internal/subtitle"
)

const summaryPrompt = `You are an expert at analyzing meeting and interview recordings. Based on the transcript below, write a DETAILED summary in the transcript's own language.

Requirements:
- Start with a one-sentence overview of the recording's topic
- List ALL main points in the order they appear
- Keep speaker attributions when the transcript labels speakers
- Use markdown: headings, bullet points, bold for key terms
- End with an "Action items" section when any are mentioned

Transcript:
---
%s
---`

// SummarizeTree walks root for transcripts without a summary yet and
// writes a .docx next to each. A transcript whose summary already exists
// is left alone, so repeated runs only cover new work.
func (s *implSummarizer) SummarizeTree(ctx context.Context, root string) error {
	transcripts, err := discoverTranscripts(root)
	if err != nil {
		return fmt.Errorf("discover transcripts: %w", err)
	}
	if len(transcripts) == 0 {
		s.logger.Info(ctx, "No new transcripts to summarize under %s", root)
		return nil
	}

	s.logger.Info(ctx, "Summarizing %d transcript(s)", len(transcripts))

	var failed int
	for i, srtPath := range transcripts {
		name := strings.TrimSuffix(filepath.Base(srtPath), ".srt")
		s.logger.Info(ctx, "[%d/%d] Summarizing: %s", i+1, len(transcripts), name)

		if err := s.summarizeOne(ctx, srtPath, name); err != nil {
			s.logger.Error(ctx, "Summary failed: %s: %v", name, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d summaries failed", failed, len(transcripts))
	}
	return nil
}

func (s *implSummarizer) summarizeOne(ctx context.Context, srtPath, name string) error {
	content, err := os.ReadFile(srtPath)
	if err != nil {
		return err
	}

	text := subtitle.PlainText(string(content))
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("transcript is empty")
	}

	summary, err := s.generate(ctx, fmt.Sprintf(summaryPrompt, text))
	if err != nil {
		return err
	}

	docxPath := strings.TrimSuffix(srtPath, ".srt") + ".docx"
	return markdownToDocx(name, strings.TrimSpace(summary), docxPath)
}

// callGemini sends one prompt to the configured model, rotating API keys
// on rate-limit and quota errors.
func (s *implSummarizer) callGemini(ctx context.Context, prompt string) (string, error) {
	attempts := len(s.apiKeys)
	if attempts == 0 {
		return "", fmt.Errorf("no API keys configured")
	}
	var lastErr error

	for range attempts {
		key := s.apiKeys[s.currentKey]

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
		if err != nil {
			msg := err.Error()
			if strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
				s.logger.Warn(ctx, "API key %d rate limited, rotating", s.currentKey+1)
				s.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			return text, nil
		}

		return "", fmt.Errorf("empty model response")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (s *implSummarizer) rotateKey() {
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
}

// discoverTranscripts returns every .srt under root lacking a sibling
// .docx, in stable order.
func discoverTranscripts(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.ToLower(filepath.Ext(path)) != ".srt" {
			return nil
		}
		docxPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".docx"
		if _, err := os.Stat(docxPath); err == nil {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
