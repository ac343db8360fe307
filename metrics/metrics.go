package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	commentsStored  prometheus.Counter
}

var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// NewMetrics creates a new Metrics instance on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinyflaw_requests_total",
				Help: "Total number of requests by handler and status",
			},
			[]string{"handler", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tinyflaw_request_duration_seconds",
				Help:    "Request latency in seconds by handler",
				Buckets: defaultBuckets,
			},
			[]string{"handler"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tinyflaw_requests_in_flight",
				Help: "Number of requests being served",
			},
		),
		commentsStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tinyflaw_comments_stored_total",
				Help: "Total number of comments stored",
			},
		),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.inFlight,
		m.commentsStored,
	)

	return m
}

// RecordRequest records a finished request
func (m *Metrics) RecordRequest(handler string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(handler).Observe(duration.Seconds())
}

// RecordComment counts a stored comment
func (m *Metrics) RecordComment() {
	m.commentsStored.Inc()
}

// IncInFlight increments the in-flight gauge
func (m *Metrics) IncInFlight() {
	m.inFlight.Inc()
}

// DecInFlight decrements the in-flight gauge
func (m *Metrics) DecInFlight() {
	m.inFlight.Dec()
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
