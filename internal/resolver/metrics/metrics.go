package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for name resolution.
type Metrics struct {
	Resolved         prometheus.Counter
	NotFound         prometheus.Counter
	CacheHits        prometheus.Counter
	CandidateQueries prometheus.Counter
}

// New creates and registers resolver metrics.
func New() *Metrics {
	return &Metrics{
		Resolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedex_resolutions_total",
			Help: "Total number of names resolved to a person",
		}),
		NotFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedex_resolutions_not_found_total",
			Help: "Total number of resolutions that exhausted all candidates",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedex_resolution_cache_hits_total",
			Help: "Total number of resolutions served from the cache",
		}),
		CandidateQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namedex_resolution_candidate_queries_total",
			Help: "Total number of candidate strings queried against the index",
		}),
	}
}

func (m *Metrics) IncResolved() {
	if m == nil {
		return
	}
	m.Resolved.Inc()
}

func (m *Metrics) IncNotFound() {
	if m == nil {
		return
	}
	m.NotFound.Inc()
}

func (m *Metrics) IncCacheHits() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncCandidateQueries() {
	if m == nil {
		return
	}
	m.CandidateQueries.Inc()
}
