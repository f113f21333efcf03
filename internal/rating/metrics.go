package rating

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics are the service's Prometheus collectors.
type Metrics struct {
	Ratings           *prometheus.CounterVec
	Scores            prometheus.Histogram
	Inconsistent      *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram
}

// NewMetrics builds the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prioritizer",
			Name:      "ratings_total",
			Help:      "Use case ratings computed, by result.",
		}, []string{"result"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prioritizer",
			Name:      "rating_score",
			Help:      "Distribution of computed use case scores.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		Inconsistent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prioritizer",
			Name:      "inconsistent_judgments_total",
			Help:      "Judgment sets whose consistency ratio exceeded the threshold, by layer.",
		}, []string{"layer"}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prioritizer",
			Name:      "recompute_duration_seconds",
			Help:      "Wall time of batch rating recomputations.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Ratings, m.Scores, m.Inconsistent, m.RecomputeDuration)
	}
	return m
}
