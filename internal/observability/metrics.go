package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Intake outcomes recorded on intake_events_total.
const (
	IntakeOutcomeCreated   = "created"
	IntakeOutcomeDuplicate = "duplicate"
	IntakeOutcomeRejected  = "rejected"
	IntakeOutcomeTransient = "transient"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	errors         *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	intakeEvents   *prometheus.CounterVec
	authzDecisions *prometheus.CounterVec
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests, labelled by route, method and status.",
		}, []string{"route", "method", "status"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total error responses, labelled by route, method and error code.",
		}, []string{"route", "method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		intakeEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_events_total",
			Help: "Inbound intake events, labelled by outcome.",
		}, []string{"outcome"}),
		authzDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Role guard decisions, labelled by action and decision.",
		}, []string{"action", "decision"}),
	}
}

// RecordRequest counts a finished request and observes its latency.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response by code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordIntake counts an intake event outcome.
func (m *Metrics) RecordIntake(outcome string) {
	if m == nil {
		return
	}
	m.intakeEvents.WithLabelValues(outcome).Inc()
}

// RecordAuthorization counts a guard decision.
func (m *Metrics) RecordAuthorization(action string, allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.authzDecisions.WithLabelValues(action, decision).Inc()
}
