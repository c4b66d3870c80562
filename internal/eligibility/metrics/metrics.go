package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the eligibility module.
type Metrics struct {
	// Search latency including profile fetch and scoring
	SearchLatency prometheus.Histogram

	// Scored results by verdict
	Results *prometheus.CounterVec

	// Candidate services considered per search
	Candidates prometheus.Histogram
}

// New creates a Metrics instance with all eligibility metrics registered.
func New() *Metrics {
	return &Metrics{
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govnav_eligibility_search_duration_seconds",
			Help:    "Duration of eligibility searches including profile lookup",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Results: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govnav_eligibility_results_total",
			Help: "Total scored results by verdict",
		}, []string{"verdict"}),
		Candidates: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govnav_eligibility_candidates_per_search",
			Help:    "Number of candidate services scored per search",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(d time.Duration, candidates int) {
	if m != nil {
		m.SearchLatency.Observe(d.Seconds())
		m.Candidates.Observe(float64(candidates))
	}
}

// IncrementResult records a scored result verdict.
func (m *Metrics) IncrementResult(verdict string) {
	if m != nil {
		m.Results.WithLabelValues(verdict).Inc()
	}
}
