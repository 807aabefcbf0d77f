package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the variant index.
type Metrics struct {
	VariantsIndexed prometheus.Counter
	QueryDuration   prometheus.Histogram
	QueryTimeouts   prometheus.Counter
}

// New creates and registers variant index metrics.
func New() *Metrics {
	return &Metrics{
		VariantsIndexed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedex_variants_indexed_total",
			Help: "Total number of name variant rows written to the index",
		}),
		QueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "namedex_variant_query_duration_seconds",
			Help:    "Latency of variant index queries",
			Buckets: prometheus.DefBuckets,
		}),
		QueryTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedex_variant_query_timeouts_total",
			Help: "Total number of variant index queries abandoned on deadline",
		}),
	}
}

func (m *Metrics) AddVariantsIndexed(n int) {
	if m == nil {
		return
	}
	m.VariantsIndexed.Add(float64(n))
}

func (m *Metrics) ObserveQueryDuration(seconds float64) {
	if m == nil {
		return
	}
	m.QueryDuration.Observe(seconds)
}

func (m *Metrics) IncQueryTimeouts() {
	if m == nil {
		return
	}
	m.QueryTimeouts.Inc()
}
