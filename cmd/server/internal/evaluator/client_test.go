package evaluator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClientDefaults(t *testing.T) {
	c, err := NewHTTPClient(Config{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, DefaultTemperature, c.temperature)
}

func TestNewHTTPClientRequiresAPIKey(t *testing.T) {
	_, err := NewHTTPClient(Config{})
	assert.Error(t, err)
}

func TestEvaluateSuccess(t *testing.T) {
	var gotReq chatCompletionRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"lesson_overview\":{}}  "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c, err := NewHTTPClient(Config{
		APIKey:      "secret",
		BaseURL:     server.URL + "/v1",
		Model:       "test-model",
		Temperature: 0.2,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)

	content, err := c.Evaluate(context.Background(), "system text", "user text")
	require.NoError(t, err)

	assert.Equal(t, `{"lesson_overview":{}}`, content, "content should be trimmed")
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, 0.2, gotReq.Temperature)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "system text", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "user text", gotReq.Messages[1].Content)
}

func TestEvaluateAPIErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"authentication_error"}}`))
	}))
	defer server.Close()

	c, err := NewHTTPClient(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Evaluate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Contains(t, err.Error(), "authentication_error")
}

func TestEvaluateNon200WithoutErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := NewHTTPClient(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Evaluate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestEvaluateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c, err := NewHTTPClient(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Evaluate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestEvaluateContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c, err := NewHTTPClient(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.Evaluate(ctx, "s", "u")
	assert.Error(t, err)
}
