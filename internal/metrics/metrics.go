// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"factiliza-proxy-go/internal/model"
)

// Default histogram buckets for API latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Headless rendering is slow; buckets reach further than the API ones.
var renderBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

// Render pipeline stages used as the "stage" label.
const (
	StageTemplate  = "template"
	StageRasterize = "rasterize"
)

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec

	RenderDuration *prometheus.HistogramVec
	RenderFailures *prometheus.CounterVec

	path string
}

// DefaultPath is where the exposition endpoint is served unless overridden.
const DefaultPath = "/metrics"

// Option configures a Metrics instance.
type Option func(*Metrics)

// WithPath sets the exposition path so requests to it keep their own label.
func WithPath(path string) Option {
	return func(m *Metrics) {
		if path != "" {
			m.path = path
		}
	}
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New(opts ...Option) *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		path:     DefaultPath,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factiliza_proxy_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factiliza_proxy_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factiliza_proxy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factiliza_proxy_upstream_request_duration_seconds",
			Help:    "Upstream call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"endpoint"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factiliza_proxy_upstream_responses_total",
			Help: "Total upstream responses by endpoint and status code.",
		}, []string{"endpoint", "status_code"}),

		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factiliza_proxy_render_duration_seconds",
			Help:    "Render pipeline stage latency in seconds.",
			Buckets: renderBuckets,
		}, []string{"stage"}),

		RenderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factiliza_proxy_render_failures_total",
			Help: "Total render pipeline failures by stage.",
		}, []string{"stage"}),
	}

	for _, opt := range opts {
		opt(m)
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.RenderDuration,
		m.RenderFailures,
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

// NormalizePath returns a bounded path label for Prometheus metrics: a route
// path, the exposition path, or "other".
func (m *Metrics) NormalizePath(path string) string {
	paths := append(model.ReservedPaths(), m.path)
	for _, known := range paths {
		if path == known || strings.HasPrefix(path, known+"/") || strings.HasPrefix(path, known+"?") {
			return known
		}
	}
	return "other"
}

// NormalizeEndpoint returns a bounded upstream endpoint label: the upstream
// path when it belongs to a known route, "other" otherwise.
func NormalizeEndpoint(path string) string {
	for _, r := range model.AllRoutes() {
		if path == r.Upstream {
			return r.Upstream
		}
	}
	return "other"
}
