package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordAuthorization(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordAuthorization("ticket.reopen", false)
	m.RecordAuthorization("ticket.reopen", false)
	m.RecordAuthorization("ticket.reopen", true)

	if got := testutil.ToFloat64(m.authzDecisions.WithLabelValues("ticket.reopen", "deny")); got != 2 {
		t.Fatalf("deny count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.authzDecisions.WithLabelValues("ticket.reopen", "allow")); got != 1 {
		t.Fatalf("allow count = %v, want 1", got)
	}
}

func TestMetricsRecordIntakeAndRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordIntake(IntakeOutcomeCreated)
	m.RecordIntake(IntakeOutcomeDuplicate)
	m.RecordIntake(IntakeOutcomeDuplicate)
	m.RecordRequest("/intake/email", "POST", 200, 15*time.Millisecond)

	if got := testutil.ToFloat64(m.intakeEvents.WithLabelValues(IntakeOutcomeDuplicate)); got != 2 {
		t.Fatalf("duplicate count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/intake/email", "POST", "200")); got != 1 {
		t.Fatalf("request count = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordIntake(IntakeOutcomeRejected)
	m.RecordAuthorization("ticket.view", true)
}
