// Package pipeline runs the evaluation flow: transcribe the uploaded audio,
// resolve lesson metadata, render the prompt, call the evaluation model and
// normalize its output into the fixed payload shape.
package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/fkarika/classeval/cmd/server/internal/evaluator"
	"github.com/fkarika/classeval/cmd/server/internal/metrics"
	"github.com/fkarika/classeval/cmd/server/internal/mockeval"
	"github.com/fkarika/classeval/cmd/server/internal/normalize"
	"github.com/fkarika/classeval/cmd/server/internal/prompt"
	"github.com/fkarika/classeval/cmd/server/internal/schema"
	"github.com/fkarika/classeval/cmd/server/internal/transcribe"
	"github.com/fkarika/classeval/pkg/logger"
)

// Pipeline stage names used in logs and metrics.
const (
	StageUpload     = "upload"
	StageTranscribe = "transcribe"
	StagePrompt     = "prompt"
	StageLLM        = "llm"
	StageNormalize  = "normalize"
)

// Output is the result of one evaluation run, in response order.
type Output struct {
	Metadata   schema.LessonMetadata    `json:"metadata"`
	Transcript string                   `json:"transcript"`
	Evaluation schema.EvaluationPayload `json:"evaluation"`

	// FellBack is true when the model output was rejected and the sample
	// payload (or a patched merge of it) stands in.
	FellBack bool `json:"-"`
	// Degraded is true when the mock transcriber served the request.
	Degraded bool `json:"-"`
}

// Pipeline wires the evaluation stages together.
type Pipeline struct {
	degradation *transcribe.DegradationController
	llm         evaluator.Client
	prompts     *prompt.Library
	whisper     transcribe.Options
	log         *slog.Logger
}

// New creates a Pipeline. whisperOpts carries the configured model and
// language passed to every transcription call.
func New(dc *transcribe.DegradationController, llm evaluator.Client, prompts *prompt.Library, whisperOpts transcribe.Options, log *slog.Logger) *Pipeline {
	return &Pipeline{
		degradation: dc,
		llm:         llm,
		prompts:     prompts,
		whisper:     whisperOpts,
		log:         log,
	}
}

// Evaluate runs the full pipeline for an uploaded audio file. rawMetadata is
// the client-supplied form/JSON metadata, possibly nil.
func (p *Pipeline) Evaluate(ctx context.Context, audioPath string, rawMetadata map[string]any) (*Output, error) {
	meta := schema.ResolveMetadata(rawMetadata)

	transcriber := p.degradation.GetTranscriber()
	degraded := p.degradation.IsDegraded()

	start := time.Now()
	opts := p.whisper
	result, err := transcriber.Transcribe(ctx, audioPath, &opts)
	elapsed := time.Since(start)
	metrics.RecordStageDuration(StageTranscribe, elapsed.Seconds())
	if err != nil {
		// With the whisper service marked down even the fallback failed;
		// report unavailability rather than a one-off transcription error.
		_, _, health := p.degradation.Status()
		evalErr := NewTranscriptionError(err)
		if !health.IsHealthy {
			evalErr = NewWhisperUnavailableError(err)
		}
		logger.LogPipelineStage(p.log, StageTranscribe, "failed", elapsed.Milliseconds(), string(evalErr.Code))
		metrics.RecordPipelineError(StageTranscribe, string(evalErr.Code))
		return nil, evalErr
	}
	logger.LogPipelineStage(p.log, StageTranscribe, "completed", elapsed.Milliseconds(), "")

	output, err := p.evaluateTranscript(ctx, meta, result.Text)
	if err != nil {
		return nil, err
	}
	output.Degraded = degraded
	return output, nil
}

// EvaluateTranscript runs the language-model half of the pipeline on an
// already transcribed lesson. Exposed for text-only requests.
func (p *Pipeline) EvaluateTranscript(ctx context.Context, rawMetadata map[string]any, transcript string) (*Output, error) {
	return p.evaluateTranscript(ctx, schema.ResolveMetadata(rawMetadata), transcript)
}

func (p *Pipeline) evaluateTranscript(ctx context.Context, meta schema.LessonMetadata, transcript string) (*Output, error) {
	start := time.Now()
	systemPrompt := p.prompts.SystemPrompt()
	userPrompt := prompt.BuildUserPrompt(meta, transcript)
	logger.LogPipelineStage(p.log, StagePrompt, "rendered", time.Since(start).Milliseconds(), "")

	start = time.Now()
	content, err := p.llm.Evaluate(ctx, systemPrompt, userPrompt)
	elapsed := time.Since(start)
	metrics.RecordStageDuration(StageLLM, elapsed.Seconds())
	if err != nil {
		logger.LogPipelineStage(p.log, StageLLM, "failed", elapsed.Milliseconds(), string(LLM_FAILED))
		metrics.RecordPipelineError(StageLLM, string(LLM_FAILED))
		return nil, NewLLMError(err)
	}
	logger.LogPipelineStage(p.log, StageLLM, "completed", elapsed.Milliseconds(), "")

	start = time.Now()
	decoded := normalize.Decode(content)
	if !decoded.Valid {
		metrics.RecordFallback()
		p.log.Warn("model output rejected, using sample payload",
			"reason", decoded.Reason)
	}
	logger.LogPipelineStage(p.log, StageNormalize, "completed", time.Since(start).Milliseconds(), "")

	return &Output{
		Metadata:   meta,
		Transcript: transcript,
		Evaluation: decoded.Payload,
		FellBack:   !decoded.Valid,
	}, nil
}

// Demo produces a seedable mock evaluation without touching the transcriber
// or the model. A nil seed means time-based randomness.
func (p *Pipeline) Demo(rawMetadata map[string]any, seed *int64) *Output {
	meta := schema.ResolveMetadata(rawMetadata)

	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	gen := mockeval.NewGenerator(rng)
	return &Output{
		Metadata:   meta,
		Transcript: transcribe.DemoTranscript,
		Evaluation: gen.Generate(meta),
	}
}
