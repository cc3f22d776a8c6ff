package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of admission-relevant action being logged.
type AuditEvent string

const (
	AuditSessionIssued     AuditEvent = "session_issued"
	AuditScoreAccepted     AuditEvent = "score_accepted"
	AuditScoreRejected     AuditEvent = "score_rejected"
	AuditForgedToken       AuditEvent = "forged_token"
	AuditPhysicsViolation  AuditEvent = "physics_violation"
	AuditSubmitRateLimited AuditEvent = "submit_rate_limited"
	AuditStoreFailure      AuditEvent = "store_failure"
)

// auditLogger wraps slog.Logger for structured admission audit logging.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)

	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
	if al.metrics != nil {
		al.metrics.recordEvent(event)
	}
}

// logEvent is a convenience for events carrying a player name.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, name string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("name", name),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

// logFailure logs a rejected or failed submission with its reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
