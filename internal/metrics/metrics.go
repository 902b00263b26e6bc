package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campus_events"

// Metrics holds every collector the service exports. A nil *Metrics is
// valid and records nothing, so components can be built without one.
type Metrics struct {
	registry *prometheus.Registry

	candidates    *prometheus.CounterVec
	upserts       *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	sweepDone     prometheus.Counter
	summaries     *prometheus.CounterVec
	searchDur     prometheus.Histogram
	searchResults *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.candidates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_candidates_total",
		Help:      "Candidate events produced by each source parser",
	}, []string{"source"})
	m.upserts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_upserts_total",
		Help:      "Event upserts by source and result (inserted, updated, skipped)",
	}, []string{"source", "result"})
	m.fetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_fetch_failures_total",
		Help:      "Source fetches that failed",
	}, []string{"source"})
	m.sweepDone = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_completed_total",
		Help:      "Events flipped to completed by the sweep",
	})
	m.summaries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_summaries_total",
		Help:      "Review summaries generated, by variant",
	}, []string{"variant"})
	m.searchDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "college_search_duration_seconds",
		Help:      "Time spent merging local and directory college results",
		Buckets:   prometheus.DefBuckets,
	})
	m.searchResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "college_search_results_total",
		Help:      "College search results returned, by origin (local, external)",
	}, []string{"origin"})

	m.registry.MustRegister(
		m.candidates, m.upserts, m.fetchFailures, m.sweepDone,
		m.summaries, m.searchDur, m.searchResults,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Candidates(source string, n int) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) Upsert(source, result string) {
	if m == nil {
		return
	}
	m.upserts.WithLabelValues(source, result).Inc()
}

func (m *Metrics) FetchFailed(source string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) Completed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweepDone.Add(float64(n))
}

func (m *Metrics) Summary(variant string) {
	if m == nil {
		return
	}
	m.summaries.WithLabelValues(variant).Inc()
}

func (m *Metrics) CollegeSearch(d time.Duration, local, external int) {
	if m == nil {
		return
	}
	m.searchDur.Observe(d.Seconds())
	m.searchResults.WithLabelValues("local").Add(float64(local))
	m.searchResults.WithLabelValues("external").Add(float64(external))
}
