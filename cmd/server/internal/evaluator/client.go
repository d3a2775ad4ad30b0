// Package evaluator wraps the OpenAI-compatible chat completions API that
// scores lesson transcripts. The default endpoint is the hosted Featherless
// service; any compatible gateway works via LLM_BASE_URL.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults used when configuration leaves fields empty.
const (
	DefaultBaseURL     = "https://api.featherless.ai/v1"
	DefaultModel       = "meta-llama/Meta-Llama-3.1-70B-Instruct"
	DefaultTemperature = 0.1
	DefaultTimeout     = 120 * time.Second
)

// Client is the interface the pipeline depends on. The HTTP implementation
// talks to the real API; tests substitute their own.
type Client interface {
	// Evaluate sends the prompt pair and returns the model's raw content
	// string. Content is returned as-is; JSON parsing and shape repair are
	// the normalizer's concern.
	Evaluate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds settings for the HTTP client.
type Config struct {
	// APIKey authenticates against the completions endpoint (required).
	APIKey string

	// BaseURL is the API root (default: the Featherless endpoint).
	BaseURL string

	// Model names the completion model.
	Model string

	// Temperature controls sampling randomness; evaluation wants it low.
	Temperature float64

	// Timeout bounds one completion request.
	Timeout time.Duration
}

// HTTPClient implements Client over the /chat/completions wire format.
type HTTPClient struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

var _ Client = (*HTTPClient)(nil)

// chatCompletionRequest is the /chat/completions request body.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Temperature float64             `json:"temperature"`
}

// chatCompletionMsg is one chat message.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the /chat/completions response body.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewHTTPClient creates a completion client from cfg.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("evaluator: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &HTTPClient{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Evaluate performs one chat completion with a system and user message.
func (c *HTTPClient) Evaluate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("completion API error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, string(body))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// Model returns the configured model name, for logging.
func (c *HTTPClient) Model() string {
	return c.model
}
