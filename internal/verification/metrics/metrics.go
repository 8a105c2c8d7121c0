package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	VerificationsCompleted prometheus.Counter
	VerificationsFailed    prometheus.Counter
	AnchorsAttached        prometheus.Counter
	AnchorsSkipped         prometheus.Counter
	CompleteDuration       prometheus.Histogram
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		VerificationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestgate_verifications_completed_total",
			Help: "Total number of completed verifications",
		}),
		VerificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestgate_verifications_failed_total",
			Help: "Total number of failed verification attempts",
		}),
		AnchorsAttached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestgate_anchors_attached_total",
			Help: "Compliance events appended with a chain anchor",
		}),
		AnchorsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestgate_anchors_skipped_total",
			Help: "Compliance events appended without an anchor",
		}),
		CompleteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attestgate_verification_complete_duration_seconds",
			Help:    "Duration of verification completion (attestation + persistence)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncCompleted records a completed verification.
func (m *Metrics) IncCompleted() {
	if m == nil {
		return
	}
	m.VerificationsCompleted.Inc()
}

// IncFailed records a failed verification attempt.
func (m *Metrics) IncFailed() {
	if m == nil {
		return
	}
	m.VerificationsFailed.Inc()
}

// IncAnchorAttached records an event appended with anchor info.
func (m *Metrics) IncAnchorAttached() {
	if m == nil {
		return
	}
	m.AnchorsAttached.Inc()
}

// IncAnchorSkipped records an event appended without anchor info.
func (m *Metrics) IncAnchorSkipped() {
	if m == nil {
		return
	}
	m.AnchorsSkipped.Inc()
}

// ObserveComplete records the duration of a completion.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveComplete(start time.Time) {
	if m == nil {
		return
	}
	m.CompleteDuration.Observe(time.Since(start).Seconds())
}
