package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts finished evaluation requests.
	// Labels: mode (live/demo/degraded), status (success/error)
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classeval_evaluations_total",
			Help: "Total number of evaluation requests processed by mode",
		},
		[]string{"mode", "status"},
	)

	// PipelineErrorsTotal counts pipeline failures by stage and error code.
	// Labels: stage (upload/transcribe/prompt/llm/normalize), error_code
	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classeval_pipeline_errors_total",
			Help: "Total number of pipeline errors by stage and error code",
		},
		[]string{"stage", "error_code"},
	)

	// FallbackPayloadsTotal counts evaluations where the model output was
	// replaced or patched with the sample payload.
	FallbackPayloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classeval_fallback_payloads_total",
			Help: "Total number of responses normalized against the sample payload",
		},
	)

	// TranscriberHealthy reports transcription service health (0=down, 1=up).
	TranscriberHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classeval_transcriber_healthy",
			Help: "Transcription service health status (0=unhealthy, 1=healthy)",
		},
	)

	// StageDuration observes per-stage pipeline latency in seconds.
	// Labels: stage (upload/transcribe/prompt/llm/normalize)
	// Buckets reach 300s because transcription of long lessons is slow.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classeval_stage_duration_seconds",
			Help:    "Evaluation pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)
)

// RecordEvaluation records one finished evaluation request.
func RecordEvaluation(mode string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	EvaluationsTotal.WithLabelValues(mode, status).Inc()
}

// RecordPipelineError records a stage failure.
func RecordPipelineError(stage, errorCode string) {
	PipelineErrorsTotal.WithLabelValues(stage, errorCode).Inc()
}

// RecordFallback records a normalization that fell back to the sample payload.
func RecordFallback() {
	FallbackPayloadsTotal.Inc()
}

// SetTranscriberHealthy updates the transcriber health gauge.
func SetTranscriberHealthy(healthy bool) {
	if healthy {
		TranscriberHealthy.Set(1)
	} else {
		TranscriberHealthy.Set(0)
	}
}

// RecordStageDuration observes one stage duration in seconds.
func RecordStageDuration(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}
