// Package audit writes a JSON-lines trail of every evaluation request to a
// rotating file, independent of the application log.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditLogger records evaluation attempts for later review.
type AuditLogger struct {
	logger *log.Logger
}

// NewAuditLogger creates an AuditLogger with automatic log rotation.
func NewAuditLogger(logPath string) *AuditLogger {
	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}

	return &AuditLogger{
		logger: log.New(writer, "", 0), // timestamps come from the record itself
	}
}

// Entry describes one evaluation attempt.
type Entry struct {
	RequestID   string
	Mode        string // live, demo or degraded
	SourceIP    string
	AudioFile   string
	AudioBytes  int64
	Teacher     string
	School      string
	Subject     string
	DurationMs  int64
	PayloadSane bool // false when the response fell back to the sample
	ErrorCode   string
	Err         error
}

// LogEvaluation records one finished (or failed) evaluation.
func (a *AuditLogger) LogEvaluation(e Entry) {
	record := map[string]interface{}{
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"request_id":   e.RequestID,
		"mode":         e.Mode,
		"source_ip":    e.SourceIP,
		"audio_file":   e.AudioFile,
		"audio_bytes":  e.AudioBytes,
		"teacher":      e.Teacher,
		"school":       e.School,
		"subject":      e.Subject,
		"duration_ms":  e.DurationMs,
		"payload_sane": e.PayloadSane,
		"result":       "success",
	}

	if e.Err != nil || e.ErrorCode != "" {
		record["result"] = "failed"
		if e.ErrorCode != "" {
			record["error_code"] = e.ErrorCode
		}
		if e.Err != nil {
			record["error_message"] = e.Err.Error()
		}
	}

	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}

// LogRejection records a request rejected before the pipeline ran.
func (a *AuditLogger) LogRejection(requestID, sourceIP, reason string) {
	record := map[string]interface{}{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"request_id":       requestID,
		"source_ip":        sourceIP,
		"result":           "rejected",
		"rejection_reason": reason,
	}

	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}
