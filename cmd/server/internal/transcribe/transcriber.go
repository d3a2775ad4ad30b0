// Package transcribe provides the speech-to-text abstraction used by the
// evaluation pipeline. It defines a standard interface with a Whisper HTTP
// implementation and a mock fallback, plus health checking and automatic
// degradation between the two.
package transcribe

import (
	"context"
	"time"
)

// Result is the outcome of one transcription run.
type Result struct {
	// Text is the complete transcript.
	Text string `json:"text"`

	// Language is the detected or requested language code (e.g. "cs", "en").
	Language string `json:"language"`

	// Duration is the audio duration in seconds, when the engine reports it.
	Duration float64 `json:"duration"`
}

// Options are optional transcription parameters. All fields may be zero;
// implementations supply their own defaults.
type Options struct {
	// Model selects the Whisper model (e.g. "small", "base", "tiny").
	Model string

	// Language forces transcription in a specific language (ISO 639-1).
	// Empty means auto-detection.
	Language string

	// Prompt provides domain context to improve accuracy.
	Prompt string

	// Timeout overrides the default transcription timeout.
	Timeout time.Duration
}

// Transcriber is the standard interface for speech-to-text backends. All
// implementations must respect context cancellation and wrap external errors
// with context. An empty transcript is a valid result, not an error.
type Transcriber interface {
	// Transcribe converts the audio file at audioPath into text.
	Transcribe(ctx context.Context, audioPath string, options *Options) (*Result, error)

	// HealthCheck verifies the backend is operational. It should be cheap;
	// the mock implementation always reports (false, nil).
	HealthCheck(ctx context.Context) (bool, error)

	// Name identifies the implementation for logging and monitoring.
	Name() string
}
