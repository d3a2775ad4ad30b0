package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fkarika/classeval/cmd/server/internal/audit"
	"github.com/fkarika/classeval/cmd/server/internal/config"
	"github.com/fkarika/classeval/cmd/server/internal/metrics"
	"github.com/fkarika/classeval/cmd/server/internal/middleware"
	"github.com/fkarika/classeval/cmd/server/internal/pipeline"
)

// metadataFormKeys are the lesson metadata fields accepted as flat form
// values alongside the audio part.
var metadataFormKeys = []string{
	"teacher_name",
	"school_name",
	"region",
	"age_group",
	"subject",
	"lesson_type",
	"curriculum_goal",
	"language_of_instruction",
}

// allowedAudioExtensions lists upload formats the transcriber accepts.
var allowedAudioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
}

// EvaluationHandler serves the evaluation endpoints.
type EvaluationHandler struct {
	pipeline *pipeline.Pipeline
	audit    *audit.AuditLogger
	cfg      *config.Config
}

// NewEvaluationHandler wires the handler.
func NewEvaluationHandler(p *pipeline.Pipeline, auditLog *audit.AuditLogger, cfg *config.Config) *EvaluationHandler {
	return &EvaluationHandler{
		pipeline: p,
		audit:    auditLog,
		cfg:      cfg,
	}
}

// HandleEvaluate runs the full evaluation pipeline on an uploaded recording.
// POST /api/evaluate/
//
// Multipart requests carry the recording in the "audio" (or legacy "file")
// part plus optional flat metadata fields or a "metadata" JSON field.
// JSON requests carry a "transcript" string instead of audio and skip the
// transcription stage.
func (h *EvaluationHandler) HandleEvaluate(c *gin.Context) {
	start := time.Now()
	reqID := middleware.RequestID(c)

	if strings.HasPrefix(c.ContentType(), "application/json") {
		h.evaluateFromJSON(c, reqID, start)
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		file, err = c.FormFile("file")
	}
	if err != nil {
		h.reject(c, reqID, pipeline.NewAudioMissingError("audio file is required (multipart field 'audio')"))
		return
	}

	if file.Size > h.cfg.Upload.MaxSizeBytes {
		h.reject(c, reqID, pipeline.NewAudioTooLargeError(fmt.Sprintf("audio file too large (limit %d bytes)", h.cfg.Upload.MaxSizeBytes)))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAudioExtensions[ext] {
		h.reject(c, reqID, pipeline.NewAudioMissingError(fmt.Sprintf("unsupported audio format %q", ext)))
		return
	}

	rawMetadata := h.collectFormMetadata(c)

	if err := os.MkdirAll(h.cfg.Upload.Dir, 0755); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to prepare upload directory")
		return
	}
	savePath := filepath.Join(h.cfg.Upload.Dir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to save uploaded audio")
		return
	}
	defer os.Remove(savePath)

	var out *pipeline.Output
	var runErr error
	mode := "live"
	if h.cfg.Demo.Enabled {
		// Offline demo: accept the upload, skip transcription and the model.
		mode = "demo"
		out = h.pipeline.Demo(rawMetadata, nil)
	} else {
		out, runErr = h.pipeline.Evaluate(c.Request.Context(), savePath, rawMetadata)
		if runErr == nil && out.Degraded {
			mode = "degraded"
		}
	}

	h.finish(c, reqID, mode, file.Filename, file.Size, start, out, runErr)
}

// evaluateFromJSON handles transcript-only evaluation requests.
func (h *EvaluationHandler) evaluateFromJSON(c *gin.Context, reqID string, start time.Time) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestResponse(c, "invalid JSON body")
		return
	}

	transcript, _ := body["transcript"].(string)
	if strings.TrimSpace(transcript) == "" {
		h.reject(c, reqID, pipeline.NewAudioMissingError("audio file or transcript is required"))
		return
	}
	delete(body, "transcript")

	var out *pipeline.Output
	var runErr error
	mode := "live"
	if h.cfg.Demo.Enabled {
		mode = "demo"
		out = h.pipeline.Demo(body, nil)
		out.Transcript = transcript
	} else {
		out, runErr = h.pipeline.EvaluateTranscript(c.Request.Context(), body, transcript)
	}

	h.finish(c, reqID, mode, "", int64(len(transcript)), start, out, runErr)
}

// HandleDemo returns a seedable mock evaluation without audio or model calls.
// POST /api/evaluate/demo/
//
// Metadata comes from a JSON body or form fields; an optional "seed" query
// parameter makes the output reproducible.
func (h *EvaluationHandler) HandleDemo(c *gin.Context) {
	start := time.Now()
	reqID := middleware.RequestID(c)

	var rawMetadata map[string]any
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&rawMetadata); err != nil {
			badRequestResponse(c, "invalid JSON body")
			return
		}
	} else {
		rawMetadata = h.collectFormMetadata(c)
	}

	var seed *int64
	seedValue := c.Query("seed")
	if seedValue == "" {
		seedValue = c.PostForm("seed")
	}
	if seedValue != "" {
		parsed, err := strconv.ParseInt(seedValue, 10, 64)
		if err != nil {
			badRequestResponse(c, "seed must be an integer")
			return
		}
		seed = &parsed
	}

	out := h.pipeline.Demo(rawMetadata, seed)
	h.finish(c, reqID, "demo", "", 0, start, out, nil)
}

// collectFormMetadata merges flat form fields with an optional "metadata"
// JSON field. Flat fields win on conflict.
func (h *EvaluationHandler) collectFormMetadata(c *gin.Context) map[string]any {
	raw := map[string]any{}

	if blob := c.PostForm("metadata"); blob != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(blob), &parsed); err == nil {
			raw = parsed
		}
	}

	for _, key := range metadataFormKeys {
		if v := c.PostForm(key); v != "" {
			raw[key] = v
		}
	}

	return raw
}

// reject writes a typed pre-pipeline rejection: audit record, upload-stage
// error metric, and the mapped HTTP status with the uniform error body.
func (h *EvaluationHandler) reject(c *gin.Context, reqID string, evalErr *pipeline.EvalError) {
	h.audit.LogRejection(reqID, c.ClientIP(), fmt.Sprintf("[%s] %s", evalErr.Code, evalErr.Message))
	metrics.RecordPipelineError(pipeline.StageUpload, string(evalErr.Code))
	errorResponse(c, evalErr.Code.HTTPStatus(), evalErr.Message)
}

// finish writes the response, the audit record and the request metric.
func (h *EvaluationHandler) finish(c *gin.Context, reqID, mode, audioName string, audioBytes int64, start time.Time, out *pipeline.Output, runErr error) {
	entry := audit.Entry{
		RequestID:  reqID,
		Mode:       mode,
		SourceIP:   c.ClientIP(),
		AudioFile:  audioName,
		AudioBytes: audioBytes,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if runErr != nil {
		evalErr := pipeline.AsEvalError(runErr)
		entry.ErrorCode = string(evalErr.Code)
		entry.Err = runErr
		h.audit.LogEvaluation(entry)
		metrics.RecordEvaluation(mode, false)
		errorResponse(c, evalErr.Code.HTTPStatus(), evalErr.Message)
		return
	}

	entry.Teacher = out.Metadata.TeacherName
	entry.School = out.Metadata.SchoolName
	entry.Subject = out.Metadata.Subject
	entry.PayloadSane = !out.FellBack
	h.audit.LogEvaluation(entry)
	metrics.RecordEvaluation(mode, true)

	c.JSON(http.StatusOK, out)
}
