package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts resolutions by source and times each one.
type Metrics struct {
	Resolutions *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// NewMetrics registers resolver metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexhover_resolutions_total",
				Help: "Total number of definition resolutions by source",
			},
			[]string{"source"},
		),
		Duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lexhover_resolution_seconds",
				Help:    "Definition resolution latency in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
			},
		),
	}
}

func (m *Metrics) observe(src Source, seconds float64) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(string(src)).Inc()
	m.Duration.Observe(seconds)
}
