package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/fkarika/classeval/cmd/server/internal/metrics"
	"github.com/fkarika/classeval/cmd/server/internal/transcribe"
)

// HandleHealth is the liveness probe.
// GET /health/
func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReadiness reports whether the pipeline can serve live requests.
// GET /readiness
//
// The server stays ready while degraded: the mock transcriber keeps the
// endpoint answering, the body just says so. An unwritable upload directory
// is the one hard failure, since no audio can land.
func HandleReadiness(uploadDir string, dc *transcribe.DegradationController) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, degraded, status := dc.Status()

		uploadsOK := uploadDirWritable(uploadDir)
		body := gin.H{
			"status":          "ready",
			"uploads":         "ok",
			"transcriber":     name,
			"degraded":        degraded,
			"whisper_healthy": status.IsHealthy,
		}

		if !uploadsOK {
			body["status"] = "not_ready"
			body["uploads"] = "upload directory not writable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}

		c.JSON(http.StatusOK, body)
	}
}

// uploadDirWritable checks the upload directory can be created and written.
func uploadDirWritable(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false
	}
	probe, err := os.CreateTemp(dir, ".readiness-*")
	if err != nil {
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	return true
}

// TranscriberStatusResponse describes the active transcription backend.
type TranscriberStatusResponse struct {
	Transcriber string                   `json:"transcriber"`
	Degraded    bool                     `json:"degraded"`
	Health      transcribe.ServiceStatus `json:"health"`
}

// HandleTranscriberStatus reports transcriber health and degradation state.
// GET /api/services/transcriber/status
func HandleTranscriberStatus(dc *transcribe.DegradationController) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, degraded, status := dc.Status()
		metrics.SetTranscriberHealthy(status.IsHealthy)
		c.JSON(http.StatusOK, TranscriberStatusResponse{
			Transcriber: name,
			Degraded:    degraded,
			Health:      status,
		})
	}
}
