// Package metrics exports Prometheus metrics for subscriptions, writes and HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lysyi3m/sanskrithi-site/app/store"
)

const namespace = "sanskrithi"

var _ store.Observer = (*Metrics)(nil)

type Metrics struct {
	registry *prometheus.Registry

	// Subscription metrics
	ActiveSubscriptions *prometheus.GaugeVec
	SnapshotsDelivered  *prometheus.CounterVec
	SnapshotSize        *prometheus.HistogramVec
	SubscriptionErrors  *prometheus.CounterVec

	// Write metrics
	Writes      *prometheus.CounterVec
	WriteErrors *prometheus.CounterVec

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec

	// Task metrics
	TasksCompleted *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ActiveSubscriptions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "Live collection subscriptions",
		}, []string{"collection"}),

		SnapshotsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_delivered_total",
			Help:      "Snapshots delivered to subscribers",
		}, []string{"collection"}),

		SnapshotSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_documents",
			Help:      "Documents per delivered snapshot",
			Buckets:   []float64{0, 1, 3, 10, 25, 50, 100, 250},
		}, []string{"collection"}),

		SubscriptionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_errors_total",
			Help:      "Failed snapshot reads",
		}, []string{"collection"}),

		Writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Document writes by operation",
		}, []string{"collection", "op"}),

		WriteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Failed document writes by operation",
		}, []string{"collection", "op"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "route", "status"}),

		TasksCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Background tasks by type and outcome",
		}, []string{"type", "outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SubscriptionOpened(collection string) {
	m.ActiveSubscriptions.WithLabelValues(collection).Inc()
}

func (m *Metrics) SubscriptionClosed(collection string) {
	m.ActiveSubscriptions.WithLabelValues(collection).Dec()
}

func (m *Metrics) SnapshotDelivered(collection string, size int) {
	m.SnapshotsDelivered.WithLabelValues(collection).Inc()
	m.SnapshotSize.WithLabelValues(collection).Observe(float64(size))
}

func (m *Metrics) SubscriptionFailed(collection string) {
	m.SubscriptionErrors.WithLabelValues(collection).Inc()
}

func (m *Metrics) WriteCompleted(collection, op string, err error) {
	if err != nil {
		m.WriteErrors.WithLabelValues(collection, op).Inc()
		return
	}
	m.Writes.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) TaskCompleted(taskType string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.TasksCompleted.WithLabelValues(taskType, outcome).Inc()
}

// Middleware records request latency by route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
