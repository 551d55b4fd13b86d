package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"wavscribe/internal/config"
	"wavscribe/internal/logger"
	"wavscribe/internal/runconfig"
	"wavscribe/internal/subtitle"
)

// Result is the remote service's answer for one WAV.
type Result struct {
	Language string             `json:"language"`
	Duration float64            `json:"duration"`
	Segments []subtitle.Segment `json:"segments"`
}

// Backend submits one WAV plus configuration to the transcription service.
type Backend interface {
	Transcribe(ctx context.Context, wavPath string, cfg runconfig.Config, diarize bool) (*Result, error)
}

// RetryPolicy bounds retries of transient remote failures. Backoff is the
// delay before the second attempt and doubles per further attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

type implClient struct {
	endpoint string
	username string
	password string
	hfToken  string
	http     *http.Client
	retry    RetryPolicy
	log      logger.Logger
}

// NewClient creates a Backend for the remote whisper service. Credentials
// and endpoint are fixed at construction; nothing reads the environment
// mid-pipeline.
func NewClient(creds config.Credentials, timeout time.Duration, retry RetryPolicy, log logger.Logger) Backend {
	return &implClient{
		endpoint: creds.Endpoint,
		username: creds.Username,
		password: creds.Password,
		hfToken:  creds.DiarizationToken,
		http:     &http.Client{Timeout: timeout},
		retry:    retry,
		log:      log,
	}
}

// transientError marks a failure worth retrying (transport error, timeout,
// 429 or 5xx response).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transcribe uploads the WAV with the configuration fields and decodes the
// timed segments. Transient failures are retried with exponential backoff
// up to the policy's attempt limit.
func (c *implClient) Transcribe(ctx context.Context, wavPath string, cfg runconfig.Config, diarize bool) (*Result, error) {
	body, contentType, err := c.buildPayload(wavPath, cfg, diarize)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retry.Backoff << (attempt - 2)
			c.log.Warn(ctx, "Retry %d/%d for %s in %s: %v",
				attempt, c.retry.MaxAttempts, filepath.Base(wavPath), delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.call(ctx, body, contentType)
		if err == nil {
			return result, nil
		}

		var transient *transientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("transcription failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

// buildPayload assembles the multipart form once; the same bytes are
// replayed on every retry attempt.
func (c *implClient) buildPayload(wavPath string, cfg runconfig.Config, diarize bool) ([]byte, string, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, "", fmt.Errorf("read audio file: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"model":                cfg.Model,
		"language":             cfg.Language,
		"translate_to_english": strconv.FormatBool(cfg.TranslateToEnglish),
		"compute_type":         cfg.ComputeType,
		"file_format":          cfg.FileFormat,
		"enable_vad":           strconv.FormatBool(cfg.VAD),
		"enable_diarization":   strconv.FormatBool(diarize),
	}
	if cfg.VAD && cfg.VADSpeechThreshold != nil {
		fields["vad_speech_threshold"] = strconv.FormatFloat(*cfg.VADSpeechThreshold, 'f', -1, 64)
	}
	if diarize {
		fields["huggingface_token"] = c.hfToken
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// call performs a single request attempt.
func (c *implClient) call(ctx context.Context, body []byte, contentType string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("transcription request: %w", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{err: err}
		}
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &result, nil
}
