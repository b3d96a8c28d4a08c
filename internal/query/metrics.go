package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives cache events. Family is the first element of the key.
type Metrics interface {
	CacheHit(family string)
	CacheMiss(family string)
	FetchDone(family string, d time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) CacheHit(string)                        {}
func (nopMetrics) CacheMiss(string)                       {}
func (nopMetrics) FetchDone(string, time.Duration, error) {}

// PromMetrics exports cache events as Prometheus series. One instance is
// shared by every session's client.
type PromMetrics struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "query_cache",
			Name:      "hits_total",
			Help:      "Queries answered from the cache.",
		}, []string{"family"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "query_cache",
			Name:      "misses_total",
			Help:      "Queries that required a fetch.",
		}, []string{"family"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "query_cache",
			Name:      "fetches_total",
			Help:      "Settled fetches by outcome.",
		}, []string{"family", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Subsystem: "query_cache",
			Name:      "fetch_duration_seconds",
			Help:      "Fetch duration including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"family"}),
	}
	reg.MustRegister(m.hits, m.misses, m.fetches, m.duration)
	return m
}

func (m *PromMetrics) CacheHit(family string) {
	m.hits.WithLabelValues(family).Inc()
}

func (m *PromMetrics) CacheMiss(family string) {
	m.misses.WithLabelValues(family).Inc()
}

func (m *PromMetrics) FetchDone(family string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.fetches.WithLabelValues(family, outcome).Inc()
	m.duration.WithLabelValues(family).Observe(d.Seconds())
}
