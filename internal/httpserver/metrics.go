package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors served on /metrics. Each server owns its own
// registry so tests and multiple instances never collide.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	derive   prometheus.Histogram
	visible  prometheus.Histogram
	ingested *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewMetrics creates and registers the HTTP and derivation collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuedeck",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "issuedeck",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		derive: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "issuedeck",
			Subsystem: "view",
			Name:      "derive_duration_seconds",
			Help:      "Time spent deriving a view from the issue list.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		visible: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "issuedeck",
			Subsystem: "view",
			Name:      "derived_issues",
			Help:      "Number of issues matching a derived view.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuedeck",
			Subsystem: "ingest",
			Name:      "issues_total",
			Help:      "Issues accepted from each input source.",
		}, []string{"source"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuedeck",
			Subsystem: "ingest",
			Name:      "rejected_total",
			Help:      "Input envelopes that could not be decoded, by source.",
		}, []string{"source"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.derive, m.visible,
		m.ingested, m.rejected,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// middleware records one request count and latency sample per request.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) observeDerive(d time.Duration, derived int) {
	m.derive.Observe(d.Seconds())
	m.visible.Observe(float64(derived))
}

// ObserveIngest counts one processed envelope from source.
func (m *Metrics) ObserveIngest(source string, issues int, err error) {
	if source == "" {
		source = "unknown"
	}
	if err != nil {
		m.rejected.WithLabelValues(source).Inc()
	}
	if issues > 0 {
		m.ingested.WithLabelValues(source).Add(float64(issues))
	}
}
