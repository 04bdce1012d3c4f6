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

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheHitRatio     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	rateLimitRejected *prometheus.CounterVec
	securityEvents    *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors on a private registry.
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

	rateLimitRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"group"})

	securityEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "security_events_total",
		Help: "Security events recorded",
	}, []string{"event"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, rateLimitRejected, securityEvents, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		rateLimitRejected: rateLimitRejected,
		securityEvents:    securityEvents,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
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

// RecordRateLimitRejection counts a request refused by the limiter.
func (m *MetricsService) RecordRateLimitRejection(group string) {
	if m == nil {
		return
	}
	m.rateLimitRejected.WithLabelValues(group).Inc()
}

// RecordSecurityEvent counts a security event by name.
func (m *MetricsService) RecordSecurityEvent(event string) {
	if m == nil {
		return
	}
	m.securityEvents.WithLabelValues(event).Inc()
}
