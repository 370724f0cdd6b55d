package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/backoffice-approvals/internal/domain/approval"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
)

const namespace = "backoffice"

// Metrics holds the approval engine collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	actionsTotal       *prometheus.CounterVec
	outcomesTotal      *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

// New creates and registers all collectors, including Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_actions_total",
				Help:      "Total number of create, approve and reject operations",
			},
			[]string{"module", "action"},
		),
		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolver_outcomes_total",
				Help:      "Total number of approver resolution outcomes by kind",
			},
			[]string{"module", "kind"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of requester notifications by result",
			},
			[]string{"kind", "result"},
		),
	}

	m.registry.MustRegister(
		m.apiRequestsTotal,
		m.apiRequestDuration,
		m.actionsTotal,
		m.outcomesTotal,
		m.notificationsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAPIRequest records one HTTP request
func (m *Metrics) RecordAPIRequest(method, path string, status int, duration time.Duration) {
	m.apiRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.apiRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAction counts a create, approve or reject
func (m *Metrics) RecordAction(module entity.Module, action string) {
	m.actionsTotal.WithLabelValues(string(module), action).Inc()
}

// RecordOutcome counts one resolver outcome
func (m *Metrics) RecordOutcome(module entity.Module, kind approval.Kind) {
	m.outcomesTotal.WithLabelValues(string(module), string(kind)).Inc()
}

// RecordNotification counts a notification delivery attempt
func (m *Metrics) RecordNotification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, result).Inc()
}
