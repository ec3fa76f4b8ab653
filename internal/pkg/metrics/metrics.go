// Package metrics exposes Prometheus collectors for the storefront.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
)

// Metrics holds every collector registered by the service
type Metrics struct {
	registry *prometheus.Registry

	mutationsTotal  *prometheus.CounterVec
	cartWritesTotal *prometheus.CounterVec
	cartHydrations  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the storefront collectors on a fresh registry
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "storefront"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimistic_mutations_total",
			Help:      "Settled optimistic mutations by controller, status and failure kind",
		}, []string{"controller", "status", "kind"}),
		cartWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_writes_total",
			Help:      "Durable cart writes by backend and result",
		}, []string{"backend", "result"}),
		cartHydrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_hydrations_total",
			Help:      "Cart hydrations from durable storage by result",
		}, []string{"backend", "result"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Storefront sessions currently held in memory",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveMutation implements optimistic.Observer
func (m *Metrics) ObserveMutation(controller string, status optimistic.Status, kind optimistic.Kind) {
	k := string(kind)
	if k == "" {
		k = "none"
	}
	m.mutationsTotal.WithLabelValues(controller, string(status), k).Inc()
}

// ObserveCartWrite counts one durable cart write
func (m *Metrics) ObserveCartWrite(backend string, err error) {
	m.cartWritesTotal.WithLabelValues(backend, result(err)).Inc()
}

// ObserveCartHydration counts one durable cart read
func (m *Metrics) ObserveCartHydration(backend string, err error) {
	m.cartHydrations.WithLabelValues(backend, result(err)).Inc()
}

// SetActiveSessions records the number of live sessions
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
