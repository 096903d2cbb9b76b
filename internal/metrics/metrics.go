// Package metrics collects Prometheus metrics of the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strconv"
	"time"
)

// Collector holds the API metrics registered in a single prometheus.Registerer
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	readTransitions prometheus.Counter
}

// NewCollector creates Collector and registers its metrics in reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagely_http_requests_total",
			Help: "Number of handled HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "messagely_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagely_auth_failures_total",
			Help: "Rejected logins and bearer tokens by reason.",
		}, []string{"reason"}),
		readTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messagely_messages_read_total",
			Help: "Messages transitioned from unread to read.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.authFailures,
		c.readTransitions,
	)

	return c
}

// RecordRequest records one handled request. route is the router pattern, not the raw path.
func (c *Collector) RecordRequest(method, route string, statusCode int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordReadTransition() {
	c.readTransitions.Inc()
}

// Handler returns HTTP handler for Prometheus scraping
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
