package transcribe

import (
	"log/slog"
	"sync"
)

// DegradationController switches between a primary transcriber and a
// fallback (the mock) based on health status, so the evaluation endpoint
// keeps answering even while the whisper service is down. Thread-safe.
type DegradationController struct {
	primary       Transcriber
	fallback      Transcriber
	healthChecker *HealthChecker
	current       Transcriber
	mu            sync.RWMutex
	isDegraded    bool
	log           *slog.Logger
}

// NewDegradationController wires the controller. Initial state is the
// primary transcriber; health status is assumed good until probes disagree.
func NewDegradationController(primary, fallback Transcriber, hc *HealthChecker, log *slog.Logger) *DegradationController {
	return &DegradationController{
		primary:       primary,
		fallback:      fallback,
		healthChecker: hc,
		current:       primary,
		log:           log,
	}
}

// GetTranscriber returns the active transcriber, switching to the fallback
// when the primary is unhealthy and back when it recovers.
func (dc *DegradationController) GetTranscriber() Transcriber {
	status := dc.healthChecker.GetStatus()

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if !status.IsHealthy && !dc.isDegraded {
		dc.log.Warn("degrading to fallback transcriber",
			"fallback", dc.fallback.Name(),
			"primary", dc.primary.Name(),
			"error", status.ErrorMessage,
		)
		dc.current = dc.fallback
		dc.isDegraded = true
	} else if status.IsHealthy && dc.isDegraded {
		dc.log.Info("primary transcriber recovered, switching back",
			"primary", dc.primary.Name(),
		)
		dc.current = dc.primary
		dc.isDegraded = false
	}

	return dc.current
}

// IsDegraded reports whether the fallback is currently active.
func (dc *DegradationController) IsDegraded() bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.isDegraded
}

// Status returns the health snapshot alongside the active transcriber name,
// for the transcriber status endpoint.
func (dc *DegradationController) Status() (string, bool, ServiceStatus) {
	status := dc.healthChecker.GetStatus()
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.current.Name(), dc.isDegraded, status
}
