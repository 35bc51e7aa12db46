// Package metrics exports plugin and HTTP counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "originallyappeared"

// Metrics holds the Prometheus collectors
type Metrics struct {
	registry prometheus.Gatherer

	// Plugin events, e.g. save.applied or head.noindex
	Events *prometheus.CounterVec

	// HTTP metrics
	Requests *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from gatherer
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: gatherer,
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Plugin events by name",
		}, []string{"event"}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
	}
}

// IncrementCounter implements originallyappeared.Metrics
func (m *Metrics) IncrementCounter(name string) {
	m.Events.WithLabelValues(name).Inc()
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by their chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
