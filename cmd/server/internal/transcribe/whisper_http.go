package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// WhisperHTTP implements Transcriber against a go-whisper style REST service.
// Classroom recordings run up to a full lesson, and transcription time tracks
// audio length, so the client defaults to a generous timeout.
type WhisperHTTP struct {
	apiURL         string
	model          string
	language       string
	fallbackModels []string
	httpClient     *http.Client
}

// NewWhisperHTTP creates a client for the whisper service at apiURL. model
// and language are defaults applied when a call passes no options;
// fallbackModels are smaller models retried in order when the requested
// model fails, so a service missing the preferred model still transcribes.
func NewWhisperHTTP(apiURL, model, language string, fallbackModels ...string) *WhisperHTTP {
	return &WhisperHTTP{
		apiURL:         apiURL,
		model:          model,
		language:       language,
		fallbackModels: fallbackModels,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// Transcribe uploads the audio file as multipart/form-data and decodes the
// JSON transcription response. The requested model is tried first, then each
// fallback model in order; the last attempt's error is returned when all fail.
func (w *WhisperHTTP) Transcribe(ctx context.Context, audioPath string, options *Options) (*Result, error) {
	model := w.model
	if options != nil && options.Model != "" {
		model = options.Model
	}

	candidates := []string{model}
	for _, fallback := range w.fallbackModels {
		if fallback != model {
			candidates = append(candidates, fallback)
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		result, err := w.transcribeOnce(ctx, audioPath, candidate, options)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// transcribeOnce performs a single transcription request with one model.
func (w *WhisperHTTP) transcribeOnce(ctx context.Context, audioPath, model string, options *Options) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}

	if err := writer.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}

	if err := writer.WriteField("response_format", "json"); err != nil {
		return nil, fmt.Errorf("failed to write response_format field: %w", err)
	}

	language := w.language
	if options != nil && options.Language != "" {
		language = options.Language
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, fmt.Errorf("failed to write language field: %w", err)
		}
	}

	if options != nil && options.Prompt != "" {
		if err := writer.WriteField("prompt", options.Prompt); err != nil {
			return nil, fmt.Errorf("failed to write prompt field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/whisper/transcribe", w.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whisper API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return &result, nil
}

// HealthCheck probes the whisper model listing endpoint.
func (w *WhisperHTTP) HealthCheck(ctx context.Context) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/whisper/model", w.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}

	return false, fmt.Errorf("health check failed: status %d", resp.StatusCode)
}

// Name identifies this implementation in logs and status endpoints.
func (w *WhisperHTTP) Name() string {
	return "whisper-http"
}
