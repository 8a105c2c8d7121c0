package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the data subject rights module.
// Deletion steps are tracked individually because partial completion is an
// expected operating mode, not an anomaly.
type Metrics struct {
	DeletionsTotal    prometheus.Counter
	DeletionStepFails *prometheus.CounterVec
	DeletionDuration  prometheus.Histogram
	ExportsTotal      prometheus.Counter
	OwnershipDenied   prometheus.Counter
}

// New creates a Metrics instance with all module metrics registered.
func New() *Metrics {
	return &Metrics{
		DeletionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestgate_subject_deletions_total",
			Help: "Total number of erasure requests processed",
		}),
		DeletionStepFails: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attestgate_subject_deletion_step_failures_total",
			Help: "Erasure step failures by step name",
		}, []string{"step"}),
		DeletionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attestgate_subject_deletion_duration_seconds",
			Help:    "Duration of full erasure requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ExportsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestgate_subject_exports_total",
			Help: "Total number of subject data exports",
		}),
		OwnershipDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestgate_ownership_denied_total",
			Help: "Ownership validations that failed closed",
		}),
	}
}

// IncDeletion records a completed erasure request.
func (m *Metrics) IncDeletion() {
	if m == nil {
		return
	}
	m.DeletionsTotal.Inc()
}

// IncStepFailure records a failed erasure step.
func (m *Metrics) IncStepFailure(step string) {
	if m == nil {
		return
	}
	m.DeletionStepFails.WithLabelValues(step).Inc()
}

// ObserveDeletion records the duration of a full erasure request.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDeletion(start time.Time) {
	if m == nil {
		return
	}
	m.DeletionDuration.Observe(time.Since(start).Seconds())
}

// IncExport records a completed data export.
func (m *Metrics) IncExport() {
	if m == nil {
		return
	}
	m.ExportsTotal.Inc()
}

// IncOwnershipDenied records a denied ownership validation.
func (m *Metrics) IncOwnershipDenied() {
	if m == nil {
		return
	}
	m.OwnershipDenied.Inc()
}
