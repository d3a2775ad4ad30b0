package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkarika/classeval/cmd/server/internal/audit"
	"github.com/fkarika/classeval/cmd/server/internal/config"
	"github.com/fkarika/classeval/cmd/server/internal/pipeline"
	"github.com/fkarika/classeval/cmd/server/internal/prompt"
	"github.com/fkarika/classeval/cmd/server/internal/schema"
	"github.com/fkarika/classeval/cmd/server/internal/transcribe"
	"github.com/fkarika/classeval/pkg/logger"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audioPath string, options *transcribe.Options) (*transcribe.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &transcribe.Result{Text: s.text}, nil
}

func (s *stubTranscriber) HealthCheck(ctx context.Context) (bool, error) { return true, nil }
func (s *stubTranscriber) Name() string                                  { return "stub" }

type stubLLM struct {
	content string
	err     error
}

func (s *stubLLM) Evaluate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

func sampleJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(schema.SamplePayload())
	require.NoError(t, err)
	return string(data)
}

func newTestRouter(t *testing.T, tr transcribe.Transcriber, llm *stubLLM, demoMode bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	_, err := logger.Init(logger.Config{Level: "error", Environment: "test"})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hc := transcribe.NewHealthChecker(tr, time.Hour, 3, log)
	dc := transcribe.NewDegradationController(tr, &transcribe.Mock{}, hc, log)

	lib, err := prompt.NewLibrary("")
	require.NoError(t, err)

	p := pipeline.New(dc, llm, lib, transcribe.Options{Model: "small", Language: "cs"}, log)

	tmp := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "dev", Port: "8000"},
		Upload: config.UploadConfig{Dir: filepath.Join(tmp, "uploads"), MaxSizeBytes: 1 << 20},
		Demo:   config.DemoConfig{Enabled: demoMode},
	}

	auditLog := audit.NewAuditLogger(filepath.Join(tmp, "audit.log"))
	handler := NewEvaluationHandler(p, auditLog, cfg)

	return NewRouter(cfg, handler, dc)
}

func multipartAudioRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake audio bytes"))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestEvaluateHappyPath(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{text: "lesson transcript here"}, &stubLLM{content: sampleJSON(t)}, false)

	req := multipartAudioRequest(t, "lesson.wav", map[string]string{
		"teacher_name": "Ms. Dvorak",
		"subject":      "Mathematics",
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Metadata   schema.LessonMetadata    `json:"metadata"`
		Transcript string                   `json:"transcript"`
		Evaluation schema.EvaluationPayload `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "Ms. Dvorak", resp.Metadata.TeacherName)
	assert.Equal(t, "Mathematics", resp.Metadata.Subject)
	assert.Equal(t, schema.DefaultSchoolName, resp.Metadata.SchoolName)
	assert.Equal(t, "lesson transcript here", resp.Transcript)
	assert.Len(t, resp.Evaluation.DomainScores, len(schema.DomainKeys))
}

func TestEvaluateMetadataJSONField(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{text: "t"}, &stubLLM{content: sampleJSON(t)}, false)

	req := multipartAudioRequest(t, "lesson.mp3", map[string]string{
		"metadata":     `{"school_name": "ZS Komenskeho", "teacher_name": "from-json"}`,
		"teacher_name": "from-field",
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Metadata schema.LessonMetadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "ZS Komenskeho", resp.Metadata.SchoolName)
	assert.Equal(t, "from-field", resp.Metadata.TeacherName, "flat field wins over metadata blob")
}

func TestEvaluateMissingAudio(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("teacher_name", "x"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestEvaluateAudioTooLarge(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "lesson.wav")
	require.NoError(t, err)
	_, err = part.Write(make([]byte, 2<<20)) // over the 1 MiB test limit
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}

func TestEvaluateUnsupportedFormat(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	req := multipartAudioRequest(t, "notes.txt", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported audio format")
}

func TestEvaluateTranscriptionFailure(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{err: errors.New("whisper down")}, &stubLLM{content: sampleJSON(t)}, false)

	req := multipartAudioRequest(t, "lesson.wav", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestEvaluateLLMFailure(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{text: "t"}, &stubLLM{err: errors.New("api down")}, false)

	req := multipartAudioRequest(t, "lesson.wav", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestEvaluateMalformedModelOutputStill200(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{text: "t"}, &stubLLM{content: "not json at all"}, false)

	req := multipartAudioRequest(t, "lesson.wav", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Evaluation schema.EvaluationPayload `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, schema.SamplePayload(), resp.Evaluation)
}

func TestEvaluateTranscriptJSONBody(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{err: errors.New("must not be called")}, &stubLLM{content: sampleJSON(t)}, false)

	body := `{"transcript": "pasted lesson text", "teacher_name": "Mr. Svoboda"}`
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Metadata   schema.LessonMetadata `json:"metadata"`
		Transcript string                `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pasted lesson text", resp.Transcript)
	assert.Equal(t, "Mr. Svoboda", resp.Metadata.TeacherName)
}

func TestEvaluateJSONBodyWithoutTranscript(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/", bytes.NewBufferString(`{"teacher_name": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateDemoModeSkipsModel(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{err: errors.New("must not be called")}, &stubLLM{err: errors.New("must not be called")}, true)

	req := multipartAudioRequest(t, "lesson.wav", map[string]string{"teacher_name": "Demo Teacher"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Metadata   schema.LessonMetadata    `json:"metadata"`
		Transcript string                   `json:"transcript"`
		Evaluation schema.EvaluationPayload `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Demo Teacher", resp.Metadata.TeacherName)
	assert.Equal(t, transcribe.DemoTranscript, resp.Transcript)
	assert.Len(t, resp.Evaluation.DomainScores, len(schema.DomainKeys))
}

func TestDemoEndpointSeedDeterminism(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	run := func() string {
		req := httptest.NewRequest(http.MethodPost, "/api/evaluate/demo/?seed=7", bytes.NewBufferString(`{"subject": "Physics"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	first := run()
	second := run()
	assert.JSONEq(t, first, second)
	assert.Contains(t, first, "Physics")
}

func TestDemoEndpointSeedFormField(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	run := func(target, body string) string {
		req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	viaForm := run("/api/evaluate/demo/", "seed=7&subject=Physics")
	viaQuery := run("/api/evaluate/demo/?seed=7", "subject=Physics")
	assert.JSONEq(t, viaForm, viaQuery, "form and query seed must agree")
}

func TestDemoEndpointBadSeed(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/demo/?seed=abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscriberStatusEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/services/transcriber/status", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp TranscriberStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "stub", resp.Transcriber)
	assert.False(t, resp.Degraded)
	assert.True(t, resp.Health.IsHealthy)
}

func TestReadinessEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubTranscriber{}, &stubLLM{}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readiness", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready"`)
}
