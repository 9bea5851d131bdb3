package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	ordersCreated    prometheus.Counter
	ordersCancelled  prometheus.Counter
	stockMutations   *prometheus.CounterVec
	storeTransitions *prometheus.CounterVec
	snapshotFailures prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mart_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mart_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mart_orders_created_total",
		Help: "Orders successfully created.",
	})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mart_orders_cancelled_total",
		Help: "Orders moved into a cancelled or rejected state.",
	})
	stockMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mart_stock_mutations_total",
		Help: "Inventory ledger mutations by action type.",
	}, []string{"action"})
	storeTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mart_store_transitions_total",
		Help: "Store open/close transitions by change type and resulting status.",
	}, []string{"change_type", "status"})
	snapshotFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mart_snapshot_failures_total",
		Help: "Persistence gateway writes that failed and were skipped.",
	})
	registry.MustRegister(requests, duration, ordersCreated, ordersCancelled, stockMutations, storeTransitions, snapshotFailures)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		ordersCreated:    ordersCreated,
		ordersCancelled:  ordersCancelled,
		stockMutations:   stockMutations,
		storeTransitions: storeTransitions,
		snapshotFailures: snapshotFailures,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// OrderCreated increments the created-orders counter.
func (m *Metrics) OrderCreated() {
	if m != nil {
		m.ordersCreated.Inc()
	}
}

// OrderCancelled increments the cancelled-orders counter.
func (m *Metrics) OrderCancelled() {
	if m != nil {
		m.ordersCancelled.Inc()
	}
}

// StockMutation counts one ledger mutation for the given action type.
func (m *Metrics) StockMutation(action string) {
	if m != nil {
		m.stockMutations.WithLabelValues(action).Inc()
	}
}

// StoreTransition counts one store open/close transition.
func (m *Metrics) StoreTransition(changeType, status string) {
	if m != nil {
		m.storeTransitions.WithLabelValues(changeType, status).Inc()
	}
}

// SnapshotFailure counts one failed persistence write.
func (m *Metrics) SnapshotFailure() {
	if m != nil {
		m.snapshotFailures.Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
