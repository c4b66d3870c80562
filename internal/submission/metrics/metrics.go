package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the submission module.
type Metrics struct {
	// Submission attempts by outcome: accepted, duplicate, rejected_closed,
	// rejected_not_ready, conflict, gateway_error
	Submissions *prometheus.CounterVec

	// End-to-end submission latency including the gateway call
	SubmitLatency prometheus.Histogram

	// Gateway call latency
	GatewayLatency prometheus.Histogram

	// Status feed records by outcome: applied, illegal_transition,
	// unknown_application, malformed
	FeedRecords *prometheus.CounterVec
}

// New creates a Metrics instance with all submission metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govnav_submission_attempts_total",
			Help: "Total submission attempts by outcome",
		}, []string{"outcome"}),
		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govnav_submission_duration_seconds",
			Help:    "Duration of submission attempts including the gateway call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		GatewayLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govnav_submission_gateway_duration_seconds",
			Help:    "Duration of external gateway calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FeedRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govnav_submission_feed_records_total",
			Help: "Total status feed records by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementSubmission records a submission attempt outcome.
func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}

// ObserveSubmit records a completed submission attempt.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

// ObserveGateway records a gateway call duration.
func (m *Metrics) ObserveGateway(d time.Duration) {
	if m != nil {
		m.GatewayLatency.Observe(d.Seconds())
	}
}

// IncrementFeedRecord records a status feed record outcome.
func (m *Metrics) IncrementFeedRecord(outcome string) {
	if m != nil {
		m.FeedRecords.WithLabelValues(outcome).Inc()
	}
}
