package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HubStats is what the realtime hub exposes about itself.
type HubStats interface {
	ActiveCount() int
	PublishedCount() uint64
}

// HubCollector reads the hub on every scrape.
type HubCollector struct {
	hub       HubStats
	active    *prometheus.Desc
	published *prometheus.Desc
}

func NewHubCollector(hub HubStats) *HubCollector {
	return &HubCollector{
		hub: hub,
		active: prometheus.NewDesc(
			"localsocial_realtime_active_subscriptions",
			"Number of open change feed subscriptions.",
			nil, nil),
		published: prometheus.NewDesc(
			"localsocial_realtime_published_events_total",
			"Number of change events published on this instance.",
			nil, nil),
	}
}

func (c *HubCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.published
}

func (c *HubCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.hub.ActiveCount()))
	ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(c.hub.PublishedCount()))
}

// HTTPMetrics tracks api requests by route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "localsocial_http_requests_total",
			Help: "Number of api requests by route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "localsocial_http_request_duration_seconds",
			Help:    "Latency of api requests by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *HTTPMetrics) Observe(method, route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// NewRegistry builds the registry served on /metrics.
func NewRegistry(hub HubStats, httpMetrics *HTTPMetrics) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if hub != nil {
		registry.MustRegister(NewHubCollector(hub))
	}
	if httpMetrics != nil {
		registry.MustRegister(httpMetrics.requests, httpMetrics.latency)
	}
	return registry
}
