// Package metrics provides Prometheus metrics for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for API latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Document sizes from 1 KiB to 64 MiB.
var sizeBuckets = prometheus.ExponentialBuckets(1024, 4, 9)

// Metrics holds all Prometheus metric collectors for the relay.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  prometheus.Histogram
	UpstreamResponses *prometheus.CounterVec
	UpstreamFailures  *prometheus.CounterVec
	DocumentBytes     prometheus.Histogram

	routes map[string]bool
}

// New creates a Metrics instance with a custom registry and all collectors registered.
// extraRoutes are added to the route label set, e.g. a configured metrics path.
func New(extraRoutes ...string) *Metrics {
	reg := prometheus.NewRegistry()

	routes := make(map[string]bool, len(knownRoutes)+len(extraRoutes))
	for r := range knownRoutes {
		routes[r] = true
	}
	for _, r := range extraRoutes {
		if r != "" {
			routes[r] = true
		}
	}

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		routes:   routes,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdf_relay_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "route"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdf_relay_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "route"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pdf_relay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdf_relay_upstream_fetch_duration_seconds",
			Help:    "Upstream document fetch latency in seconds.",
			Buckets: defaultBuckets,
		}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdf_relay_upstream_responses_total",
			Help: "Total upstream responses by status code.",
		}, []string{"status_code"}),

		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdf_relay_upstream_failures_total",
			Help: "Total failed upstream fetches by reason.",
		}, []string{"reason"}),

		DocumentBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdf_relay_document_size_bytes",
			Help:    "Size of successfully fetched documents in bytes.",
			Buckets: sizeBuckets,
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.UpstreamFailures,
		m.DocumentBytes,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownRoutes lists the allowed route label values. Matching is exact because
// every relay route is a fixed path and "/" would otherwise match everything.
var knownRoutes = map[string]bool{
	"/":                   true,
	"/healthz":            true,
	"/proxy-pdf":          true,
	"/proxy-pdf-base64":   true,
	"/proxy-pdf-to-image": true,
	"/metrics":            true,
}

// NormalizePath returns a bounded route label for Prometheus metrics.
func NormalizePath(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// RouteLabel is NormalizePath over this instance's route set.
func (m *Metrics) RouteLabel(path string) string {
	if m.routes[path] {
		return path
	}
	return "other"
}
