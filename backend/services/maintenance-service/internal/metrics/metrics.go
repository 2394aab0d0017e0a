package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "elevmaint"

// Metrics holds service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsStarted     prometheus.Counter
	sessionsEnded       prometheus.Counter
	activeSessions      prometheus.Gauge
	movementSamples     prometheus.Counter
	issuesAdded         prometheus.Counter
	replicationAttempts *prometheus.CounterVec
	replicationDropped  prometheus.Counter
	sessionDuration     prometheus.Histogram
}

// New registers collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Maintenance sessions started",
		}),
		sessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Maintenance sessions ended",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently active on this instance",
		}),
		movementSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movement_samples_total",
			Help:      "Movement samples recorded into active sessions",
		}),
		issuesAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_added_total",
			Help:      "Issues logged during sessions",
		}),
		replicationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_attempts_total",
			Help:      "Writes to the external store by outcome",
		}, []string{"outcome"}),
		replicationDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_dropped_total",
			Help:      "Records dropped after the retry failed",
		}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall-clock length of ended sessions",
			Buckets:   []float64{60, 300, 900, 1800, 3600, 7200, 14400},
		}),
	}
}

// SessionStarted records a start.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
	m.activeSessions.Inc()
}

// SessionEnded records an end with its duration.
func (m *Metrics) SessionEnded(seconds float64) {
	if m == nil {
		return
	}
	m.sessionsEnded.Inc()
	m.activeSessions.Dec()
	m.sessionDuration.Observe(seconds)
}

// SessionDropped records a session torn down without ending.
func (m *Metrics) SessionDropped() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// MovementRecorded counts a sample.
func (m *Metrics) MovementRecorded() {
	if m == nil {
		return
	}
	m.movementSamples.Inc()
}

// IssueAdded counts an issue.
func (m *Metrics) IssueAdded() {
	if m == nil {
		return
	}
	m.issuesAdded.Inc()
}

// ReplicationAttempt counts one write by outcome ("ok" or "error").
func (m *Metrics) ReplicationAttempt(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.replicationAttempts.WithLabelValues(outcome).Inc()
}

// ReplicationDropped counts a record given up on.
func (m *Metrics) ReplicationDropped() {
	if m == nil {
		return
	}
	m.replicationDropped.Inc()
}
