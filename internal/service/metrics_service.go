package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, the verification cache and
// the records workflows.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	documentsIssued    *prometheus.CounterVec
	eligibilityBlocked *prometheus.CounterVec
	conclusions        *prometheus.CounterVec
	equivalencies      *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status", "academic_type"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status", "academic_type"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	documentsIssued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_issued_total",
		Help: "Official documents issued, by kind",
	}, []string{"kind"})

	eligibilityBlocked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eligibility_blocked_total",
		Help: "Actions refused by the eligibility pipeline, by action and failing step",
	}, []string{"action", "step"})

	conclusions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conclusions_total",
		Help: "Conclusion workflow transitions",
	}, []string{"transition"})

	equivalencies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "equivalencies_total",
		Help: "Equivalency workflow transitions",
	}, []string{"transition"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		documentsIssued, eligibilityBlocked, conclusions, equivalencies, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		documentsIssued:    documentsIssued,
		eligibilityBlocked: eligibilityBlocked,
		conclusions:        conclusions,
		equivalencies:      equivalencies,
	}
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

// ObserveHTTPRequest records request metrics. academicType is empty for public routes.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, academicType string, duration time.Duration) {
	if m == nil {
		return
	}
	if academicType == "" {
		academicType = "public"
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus, academicType).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus, academicType).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// DocumentIssued counts a committed issuance.
func (m *MetricsService) DocumentIssued(kind string) {
	if m == nil {
		return
	}
	m.documentsIssued.WithLabelValues(kind).Inc()
}

// EligibilityBlocked counts a refusal by the failing pipeline step.
func (m *MetricsService) EligibilityBlocked(action, step string) {
	if m == nil {
		return
	}
	m.eligibilityBlocked.WithLabelValues(action, step).Inc()
}

// ConclusionTransition counts conclusion workflow events such as created or concluded.
func (m *MetricsService) ConclusionTransition(transition string) {
	if m == nil {
		return
	}
	m.conclusions.WithLabelValues(transition).Inc()
}

// EquivalencyTransition counts equivalency workflow events such as created, deferred or withdrawn.
func (m *MetricsService) EquivalencyTransition(transition string) {
	if m == nil {
		return
	}
	m.equivalencies.WithLabelValues(transition).Inc()
}
