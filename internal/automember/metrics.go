package automember

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "automember"
	metricsSubsystem = "synthesis"
)

// Skip reasons recorded by Metrics.
const (
	reasonNoSource     = "no_source"
	reasonExpandFailed = "expand_failed"
	reasonReadFailed   = "read_failed"
	reasonNoUID        = "no_uid"
	reasonMultipleUID  = "multiple_uid"
	reasonQueryFailed  = "query_failed"
	reasonNoMatches    = "no_matches"
)

// Metrics records synthesis outcomes.
type Metrics struct {
	// synthesized counts entries that received a derived attribute.
	// Labels: attribute
	synthesized *prometheus.CounterVec

	// skipped counts synthesis attempts that attached nothing.
	// Labels: attribute, reason
	skipped *prometheus.CounterVec

	// subqueryResults tracks how many groups a reverse lookup found.
	subqueryResults prometheus.Histogram

	// duration measures time spent synthesizing one entry.
	// Labels: attribute
	duration *prometheus.HistogramVec
}

// NewMetrics registers the overlay's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		synthesized: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "attributes_total",
			Help:      "Entries that received a synthesized attribute",
		}, []string{"attribute"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "skipped_total",
			Help:      "Synthesis attempts that attached nothing, by reason",
		}, []string{"attribute", "reason"}),
		subqueryResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "subquery_results",
			Help:      "Groups found per reverse membership lookup",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Time spent synthesizing one entry",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"attribute"}),
	}
}

func (m *Metrics) recordSynthesized(attr string) {
	if m != nil {
		m.synthesized.WithLabelValues(attr).Inc()
	}
}

func (m *Metrics) recordSkipped(attr, reason string) {
	if m != nil {
		m.skipped.WithLabelValues(attr, reason).Inc()
	}
}

func (m *Metrics) recordSubquery(n int) {
	if m != nil {
		m.subqueryResults.Observe(float64(n))
	}
}

func (m *Metrics) recordDuration(attr string, seconds float64) {
	if m != nil {
		m.duration.WithLabelValues(attr).Observe(seconds)
	}
}
