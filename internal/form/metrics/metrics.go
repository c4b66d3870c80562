package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the form session module.
type Metrics struct {
	// Sessions started
	SessionsStarted prometheus.Counter

	// Field updates by outcome: accepted, rejected, conflict, closed
	FieldUpdates *prometheus.CounterVec

	// Auto-fill candidate outcomes: applied, skipped_user_edited,
	// skipped_invalid, skipped_low_confidence
	AutoFill *prometheus.CounterVec

	// Extraction collaborator latency
	ExtractionLatency prometheus.Histogram
}

// New creates a Metrics instance with all form metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govnav_form_sessions_started_total",
			Help: "Total form sessions created",
		}),
		FieldUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govnav_form_field_updates_total",
			Help: "Total field updates by outcome",
		}, []string{"outcome"}),
		AutoFill: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govnav_form_autofill_candidates_total",
			Help: "Total auto-fill candidates by outcome",
		}, []string{"outcome"}),
		ExtractionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govnav_form_extraction_duration_seconds",
			Help:    "Duration of document extraction collaborator calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementSessionsStarted records a new session.
func (m *Metrics) IncrementSessionsStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

// IncrementFieldUpdate records a field update outcome.
func (m *Metrics) IncrementFieldUpdate(outcome string) {
	if m != nil {
		m.FieldUpdates.WithLabelValues(outcome).Inc()
	}
}

// IncrementAutoFill records an auto-fill candidate outcome.
func (m *Metrics) IncrementAutoFill(outcome string) {
	if m != nil {
		m.AutoFill.WithLabelValues(outcome).Inc()
	}
}

// ObserveExtraction records an extraction collaborator call duration.
func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m != nil {
		m.ExtractionLatency.Observe(d.Seconds())
	}
}
