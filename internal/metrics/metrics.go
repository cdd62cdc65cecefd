// Package metrics exposes Prometheus metrics for the HTTP API.
package metrics

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/amonks/tasks/task"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "tasks"

// TaskSource reports the tasks gauges are computed from.
type TaskSource interface {
	List() ([]task.Task, error)
	CheckReminders() ([]task.Task, error)
}

// Metrics owns a registry and the HTTP request collectors.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New returns metrics registered on a fresh registry, including Go runtime
// and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	registry.MustRegister(m.requests, m.duration)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterTaskGauges adds gauges for pending tasks and due reminders. They
// are evaluated on every scrape. A gauge whose source fails reports NaN and
// the failure is logged.
func (m *Metrics) RegisterTaskGauges(src TaskSource, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending",
			Help:      "Tasks that are neither completed nor deleted.",
		}, func() float64 {
			tasks, err := src.List()
			if err != nil {
				logger.Warn("pending gauge: list tasks", zap.Error(err))
				return math.NaN()
			}
			pending := 0
			for _, t := range tasks {
				if t.Pending() {
					pending++
				}
			}
			return float64(pending)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminders_due",
			Help:      "Tasks whose reminder time has passed.",
		}, func() float64 {
			tasks, err := src.CheckReminders()
			if err != nil {
				logger.Warn("reminders gauge: check reminders", zap.Error(err))
				return math.NaN()
			}
			return float64(len(tasks))
		}),
	)
}

// Middleware records request counts and latency, labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
