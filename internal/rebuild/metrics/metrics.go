package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for index rebuilds.
type Metrics struct {
	Duration   prometheus.Histogram
	Failures   prometheus.Counter
	InProgress prometheus.Gauge
	People     prometheus.Gauge
	Variants   prometheus.Gauge
}

// New creates and registers rebuild metrics.
func New() *Metrics {
	return &Metrics{
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "namedex_rebuild_duration_seconds",
			Help:    "Duration of full index rebuilds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedex_rebuild_failures_total",
			Help: "Total number of rebuilds that ended in an error",
		}),
		InProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "namedex_rebuild_in_progress",
			Help: "Whether a rebuild is currently running (0 or 1)",
		}),
		People: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "namedex_rebuild_people",
			Help: "Number of people walked by the last successful rebuild",
		}),
		Variants: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "namedex_rebuild_variants",
			Help: "Number of variants indexed by the last successful rebuild",
		}),
	}
}

func (m *Metrics) ObserveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.Duration.Observe(seconds)
}

func (m *Metrics) IncFailures() {
	if m == nil {
		return
	}
	m.Failures.Inc()
}

func (m *Metrics) SetInProgress(running bool) {
	if m == nil {
		return
	}
	if running {
		m.InProgress.Set(1)
		return
	}
	m.InProgress.Set(0)
}

func (m *Metrics) SetTotals(people, variants int) {
	if m == nil {
		return
	}
	m.People.Set(float64(people))
	m.Variants.Set(float64(variants))
}
