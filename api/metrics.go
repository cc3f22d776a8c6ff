package api

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertForgedTokenSpike      AlertType = "forged_token_spike"
	AlertPhysicsViolationSpike AlertType = "physics_violation_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

// metricsCollector tracks sliding window counters for anomaly detection.
// A burst of forged tokens means someone is probing the signing scheme; a
// burst of physics violations means a replay bot is iterating on its log.
type metricsCollector struct {
	mu sync.Mutex

	// Sliding window for forged-token rejections.
	forged          []time.Time
	forgedWindow    time.Duration
	forgedThreshold int

	// Sliding window for physics-violation rejections.
	physics          []time.Time
	physicsWindow    time.Duration
	physicsThreshold int

	alertFn AlertFunc
}

const (
	defaultForgedWindow     = 1 * time.Minute
	defaultForgedThreshold  = 20
	defaultPhysicsWindow    = 5 * time.Minute
	defaultPhysicsThreshold = 50
)

func newMetricsCollector(alertFn AlertFunc) *metricsCollector {
	return &metricsCollector{
		forgedWindow:     defaultForgedWindow,
		forgedThreshold:  defaultForgedThreshold,
		physicsWindow:    defaultPhysicsWindow,
		physicsThreshold: defaultPhysicsThreshold,
		alertFn:          alertFn,
	}
}

// recordEvent inspects an audit event and updates the relevant counters.
func (m *metricsCollector) recordEvent(event AuditEvent) {
	if m == nil || m.alertFn == nil {
		return
	}
	switch event {
	case AuditForgedToken:
		m.recordForged()
	case AuditPhysicsViolation:
		m.recordPhysics()
	}
}

func (m *metricsCollector) recordForged() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.forged = append(m.forged, now)
	m.forged = trimWindow(m.forged, now, m.forgedWindow)

	if len(m.forged) >= m.forgedThreshold {
		m.alertFn(AlertEvent{
			Type:      AlertForgedTokenSpike,
			Message:   "forged token rejection rate exceeds threshold",
			Count:     len(m.forged),
			Threshold: m.forgedThreshold,
			Timestamp: now,
		})
		// Reset to avoid repeated alerts within the same spike.
		m.forged = m.forged[:0]
	}
}

func (m *metricsCollector) recordPhysics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.physics = append(m.physics, now)
	m.physics = trimWindow(m.physics, now, m.physicsWindow)

	if len(m.physics) >= m.physicsThreshold {
		m.alertFn(AlertEvent{
			Type:      AlertPhysicsViolationSpike,
			Message:   "physics violation rejection rate exceeds threshold",
			Count:     len(m.physics),
			Threshold: m.physicsThreshold,
			Timestamp: now,
		})
		m.physics = m.physics[:0]
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
