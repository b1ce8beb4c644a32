package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ranking run outcomes used as the outcome label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// MetricsService owns the Prometheus registry of the service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	rankingRuns     *prometheus.CounterVec
	rankingDuration prometheus.Observer
	rankedRows      prometheus.Counter
	ingestedEntries prometheus.Counter
	decodeFailures  prometheus.Counter
	jobsEnqueued    prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ranking_cache_lookups_total",
		Help: "Ranking cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranking_cache_latency_seconds",
		Help:    "Latency of ranking cache reads",
		Buckets: prometheus.DefBuckets,
	})

	rankingRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ranking_runs_total",
		Help: "Ranking runs by outcome",
	}, []string{"outcome"})

	rankingDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranking_run_duration_seconds",
		Help:    "Wall time of ranking runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	rankedRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ranking_rows_written_total",
		Help: "Ranking rows written by successful runs",
	})

	ingestedEntries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_entries_inserted_total",
		Help: "Normalized answer entries inserted",
	})

	decodeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_decode_failures_total",
		Help: "Answer batches skipped because their payload could not be decoded",
	})

	jobsEnqueued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ranking_jobs_enqueued_total",
		Help: "Asynchronous ranking runs accepted",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, rankingRuns,
		rankingDuration, rankedRows, ingestedEntries, decodeFailures, jobsEnqueued, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		rankingRuns:     rankingRuns,
		rankingDuration: rankingDuration,
		rankedRows:      rankedRows,
		ingestedEntries: ingestedEntries,
		decodeFailures:  decodeFailures,
		jobsEnqueued:    jobsEnqueued,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request count and latency.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup records a ranking cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveRankingRun records one ranking run and, on success, how many rows it wrote.
func (m *MetricsService) ObserveRankingRun(outcome string, ranked int, duration time.Duration) {
	if m == nil {
		return
	}
	m.rankingRuns.WithLabelValues(outcome).Inc()
	m.rankingDuration.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		m.rankedRows.Add(float64(ranked))
	}
}

// AddIngestedEntries counts inserted answer entries.
func (m *MetricsService) AddIngestedEntries(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestedEntries.Add(float64(n))
}

// IncDecodeFailure counts one skipped answer batch.
func (m *MetricsService) IncDecodeFailure() {
	if m == nil {
		return
	}
	m.decodeFailures.Inc()
}

// IncJobsEnqueued counts one accepted asynchronous run.
func (m *MetricsService) IncJobsEnqueued() {
	if m == nil {
		return
	}
	m.jobsEnqueued.Inc()
}
