package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is a no-op.
type Metrics struct {
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	logins           *prometheus.CounterVec
	auditEvents      *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipe_archive_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipe_archive_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipe_archive_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipe_archive_auth_token_validations_total",
			Help: "Per-request authentication outcomes.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipe_archive_auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		auditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipe_archive_audit_events_total",
			Help: "Audit events by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(m.requests, m.duration, m.errors, m.tokenValidations, m.logins, m.auditEvents)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordTokenValidation counts the outcome of authenticating a request.
func (m *Metrics) RecordTokenValidation(outcome string) {
	if m == nil {
		return
	}
	m.tokenValidations.WithLabelValues(outcome).Inc()
}

// RecordLogin counts login attempts by outcome.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordAuditEvent counts published audit events.
func (m *Metrics) RecordAuditEvent(eventType string) {
	if m == nil {
		return
	}
	m.auditEvents.WithLabelValues(eventType).Inc()
}

// Handler exposes gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
