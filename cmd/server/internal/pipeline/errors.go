package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies the pipeline stage that failed.
type ErrorCode string

const (
	AUDIO_MISSING        ErrorCode = "AUDIO_MISSING"
	AUDIO_TOO_LARGE      ErrorCode = "AUDIO_TOO_LARGE"
	TRANSCRIPTION_FAILED ErrorCode = "TRANSCRIPTION_FAILED"
	WHISPER_UNAVAILABLE  ErrorCode = "WHISPER_UNAVAILABLE"
	LLM_FAILED           ErrorCode = "LLM_FAILED"
	INTERNAL_ERROR       ErrorCode = "INTERNAL_ERROR"
)

// EvalError carries a stable error code through the pipeline so the HTTP
// layer can pick the right status and message.
type EvalError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}

// NewEvalError creates an EvalError with the current timestamp.
func NewEvalError(code ErrorCode, message string, cause error) *EvalError {
	return &EvalError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewAudioMissingError reports a request without a usable audio part.
func NewAudioMissingError(message string) *EvalError {
	return NewEvalError(AUDIO_MISSING, message, nil)
}

// NewAudioTooLargeError reports an upload over the configured size limit.
func NewAudioTooLargeError(message string) *EvalError {
	return NewEvalError(AUDIO_TOO_LARGE, message, nil)
}

// NewTranscriptionError reports a failed transcription attempt.
func NewTranscriptionError(cause error) *EvalError {
	return NewEvalError(TRANSCRIPTION_FAILED, "audio transcription failed", cause)
}

// NewWhisperUnavailableError reports an unreachable transcription service.
func NewWhisperUnavailableError(cause error) *EvalError {
	return NewEvalError(WHISPER_UNAVAILABLE, "transcription service unreachable", cause)
}

// NewLLMError reports a failed evaluation model call.
func NewLLMError(cause error) *EvalError {
	return NewEvalError(LLM_FAILED, "evaluation model call failed", cause)
}

// AsEvalError extracts an EvalError from err, wrapping unknown errors as
// INTERNAL_ERROR so callers always get a code.
func AsEvalError(err error) *EvalError {
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return evalErr
	}
	return NewEvalError(INTERNAL_ERROR, "internal error", err)
}

// HTTPStatus maps an error code to the response status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case AUDIO_MISSING, AUDIO_TOO_LARGE:
		return http.StatusBadRequest
	case LLM_FAILED:
		return http.StatusBadGateway
	case TRANSCRIPTION_FAILED, WHISPER_UNAVAILABLE, INTERNAL_ERROR:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
