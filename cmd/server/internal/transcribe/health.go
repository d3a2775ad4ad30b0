package transcribe

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ServiceStatus is the current health state of a transcription backend.
// Safe for JSON serialization; exposed via the status endpoint.
type ServiceStatus struct {
	IsHealthy        bool      `json:"is_healthy"`
	LastCheckTime    time.Time `json:"last_check_time"`
	ConsecutiveFails int       `json:"consecutive_fails"`
	ErrorMessage     string    `json:"error_message"`
}

// HealthChecker runs periodic health probes against a Transcriber and tracks
// consecutive failures to drive degradation. All public methods are
// thread-safe.
type HealthChecker struct {
	transcriber   Transcriber
	status        ServiceStatus
	mu            sync.RWMutex
	checkInterval time.Duration
	failThreshold int
	stopChan      chan struct{}
	stopOnce      sync.Once
	log           *slog.Logger
}

// NewHealthChecker configures a checker for the given transcriber. The
// checker starts optimistic: the service is assumed healthy until probes say
// otherwise. Call Start to begin probing.
func NewHealthChecker(transcriber Transcriber, checkInterval time.Duration, failThreshold int, log *slog.Logger) *HealthChecker {
	return &HealthChecker{
		transcriber:   transcriber,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		log:           log,
		status: ServiceStatus{
			IsHealthy:     true,
			LastCheckTime: time.Now(),
		},
	}
}

// Start blocks running periodic checks until Stop is called or ctx ends.
// Run it in its own goroutine. An immediate probe fires on startup.
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	hc.performCheck(ctx)

	for {
		select {
		case <-ticker.C:
			hc.performCheck(ctx)
		case <-hc.stopChan:
			hc.log.Info("health checker stopped", "transcriber", hc.transcriber.Name())
			return
		case <-ctx.Done():
			hc.log.Info("health checker context cancelled", "transcriber", hc.transcriber.Name())
			return
		}
	}
}

// Stop terminates the check loop. Safe to call more than once.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() { close(hc.stopChan) })
}

// GetStatus returns a snapshot of the current health state.
func (hc *HealthChecker) GetStatus() ServiceStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.status
}

// performCheck runs one probe and updates the failure accounting. The
// service is marked unhealthy only after failThreshold consecutive failures.
func (hc *HealthChecker) performCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	isHealthy, err := hc.transcriber.HealthCheck(checkCtx)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status.LastCheckTime = time.Now()

	if isHealthy {
		hc.status.IsHealthy = true
		hc.status.ConsecutiveFails = 0
		hc.status.ErrorMessage = ""
		return
	}

	hc.status.ConsecutiveFails++
	if err != nil {
		hc.status.ErrorMessage = err.Error()
	} else {
		hc.status.ErrorMessage = "health check reported unhealthy"
	}

	if hc.status.ConsecutiveFails >= hc.failThreshold {
		if hc.status.IsHealthy {
			hc.log.Warn("transcriber marked unhealthy",
				"transcriber", hc.transcriber.Name(),
				"consecutive_fails", hc.status.ConsecutiveFails,
				"error", hc.status.ErrorMessage,
			)
		}
		hc.status.IsHealthy = false
	}
}
