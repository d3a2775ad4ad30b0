package transcribe

import "context"

// DemoTranscript is the fixed transcript returned by the mock transcriber.
// It stands in for a short classroom exchange so demo evaluations have
// plausible material to show.
const DemoTranscript = `TEACHER: Good morning everyone, open your notebooks to yesterday's exercise. Who can remind us what we practiced?
STUDENT_1: We were converting fractions to decimals.
TEACHER: Exactly. Today we keep practicing, and I want to hear a reason with every answer. Let's start with three quarters. Take ten seconds to think before anyone answers.
STUDENT_2: It's zero point seven five, because seventy-five is three quarters of a hundred.
TEACHER: Nice reasoning. Now try five eighths with your neighbour, and be ready to explain how you got there.`

// Mock implements Transcriber without any external service. It serves demo
// mode and acts as the degraded-mode fallback when the whisper service is
// down: transcription never blocks and never fails, and the health check
// always reports unhealthy so monitoring can tell the system is degraded.
type Mock struct{}

// NewMock creates a Mock transcriber. It has no configuration or state.
func NewMock() *Mock {
	return &Mock{}
}

// Transcribe returns the fixed demo transcript and never fails.
func (m *Mock) Transcribe(ctx context.Context, audioPath string, options *Options) (*Result, error) {
	language := "cs"
	if options != nil && options.Language != "" {
		language = options.Language
	}
	return &Result{
		Text:     DemoTranscript,
		Language: language,
		Duration: 0,
	}, nil
}

// HealthCheck always reports unhealthy; the mock represents a degraded state.
func (m *Mock) HealthCheck(ctx context.Context) (bool, error) {
	return false, nil
}

// Name identifies the fallback in logs and the status endpoint.
func (m *Mock) Name() string {
	return "mock-degraded"
}
