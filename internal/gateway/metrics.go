package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/flemzord/tgapi/internal/document"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error kinds reported in tgapi_payload_errors_total.
const (
	kindInvalid       = "invalid"
	kindSerialization = "serialization"
	kindDocument      = "document"
)

// Metrics holds the gateway's Prometheus collectors. Each Metrics owns its
// registry, so several gateways can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	rendered *prometheus.CounterVec
	errors   *prometheus.CounterVec
	requests *prometheus.HistogramVec

	documents *prometheus.GaugeVec
	lastCheck prometheus.Gauge
}

// NewMetrics creates and registers the gateway collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgapi_payloads_rendered_total",
			Help: "Payloads successfully built, by Bot API method.",
		}, []string{"method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgapi_payload_errors_total",
			Help: "Documents rejected, by error kind.",
		}, []string{"kind"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tgapi_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tgapi_documents",
			Help: "Documents found by the last directory check, by state.",
		}, []string{"state"}),
		lastCheck: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tgapi_documents_last_check_timestamp_seconds",
			Help: "Unix time of the last completed directory check.",
		}),
	}
	m.registry.MustRegister(
		m.rendered,
		m.errors,
		m.requests,
		m.documents,
		m.lastCheck,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRendered counts a payload built for method.
func (m *Metrics) RecordRendered(method string) {
	m.rendered.WithLabelValues(method).Inc()
}

// RecordError counts a rejected document.
func (m *Metrics) RecordError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordCheck publishes the result of a document directory check.
func (m *Metrics) RecordCheck(res document.CheckResult) {
	m.documents.WithLabelValues("valid").Set(float64(res.Valid))
	m.documents.WithLabelValues("invalid").Set(float64(res.Invalid()))
	m.lastCheck.SetToCurrentTime()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
