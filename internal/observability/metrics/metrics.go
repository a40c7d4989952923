package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics exposes counters/histograms for the API cache and its transport.
type CacheMetrics struct {
	queryTotal       *prometheus.CounterVec
	mutationTotal    *prometheus.CounterVec
	invalidatedTotal *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hms",
			Subsystem: "apicache",
			Name:      "query_total",
			Help:      "Query resolutions by outcome (hit, miss, shared, error)",
		}, []string{"api", "endpoint", "outcome"}),
		mutationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hms",
			Subsystem: "apicache",
			Name:      "mutation_total",
			Help:      "Mutations by result status",
		}, []string{"api", "endpoint", "status"}),
		invalidatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hms",
			Subsystem: "apicache",
			Name:      "invalidated_total",
			Help:      "Cache entries marked stale by tag invalidation",
		}, []string{"api"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hms",
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Latency of backend HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"api", "method", "code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queryTotal, m.mutationTotal, m.invalidatedTotal, m.requestDuration)
	return m
}

func (m *CacheMetrics) ObserveQuery(api, endpoint, outcome string) {
	if m == nil {
		return
	}
	m.queryTotal.WithLabelValues(api, endpoint, outcome).Inc()
}

func (m *CacheMetrics) ObserveMutation(api, endpoint, status string) {
	if m == nil {
		return
	}
	m.mutationTotal.WithLabelValues(api, endpoint, status).Inc()
}

func (m *CacheMetrics) ObserveInvalidated(api string, entries int) {
	if m == nil || entries <= 0 {
		return
	}
	m.invalidatedTotal.WithLabelValues(api).Add(float64(entries))
}

// ObserveRequest records one backend round trip. A code of 0 means the
// request never produced a response.
func (m *CacheMetrics) ObserveRequest(api, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "none"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requestDuration.WithLabelValues(api, method, label).Observe(elapsed.Seconds())
}

// HTTPMetrics covers the mock backend's request handling.
type HTTPMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hms",
			Subsystem: "mockapi",
			Name:      "requests_total",
			Help:      "Requests served by route pattern and status code",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hms",
			Subsystem: "mockapi",
			Name:      "request_latency_seconds",
			Help:      "Handler latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

func (m *HTTPMetrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}
