// Package metrics exposes service metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records HTTP traffic and collaborator calls on its own registry.
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	calls    *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vectordb_crud",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vectordb_crud",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		calls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vectordb_crud",
			Name:      "collaborator_call_duration_seconds",
			Help:      "Latency of calls to the vector store, inference providers and artifact store.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"collaborator", "operation", "status"}),
	}

	c.registry.MustRegister(
		c.requests,
		c.latency,
		c.calls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordCall implements core.MetricsCollector.
func (c *Collector) RecordCall(collaborator, operation string, duration time.Duration, err error) {
	c.calls.WithLabelValues(collaborator, operation, status(err)).Observe(duration.Seconds())
}

func (c *Collector) ObserveRequest(method, route string, code int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
