package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DoubtsCreated  prometheus.Counter
	DoubtsClaimed  prometheus.Counter
	DoubtsResolved prometheus.Counter

	// Claim attempts that lost the open->in_progress race.
	ClaimConflicts prometheus.Counter

	UsersSignedUp   prometheus.Counter
	QuizzesScored   prometheus.Counter
	AuditPublished  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DoubtsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_doubts_created_total",
			Help: "Total number of doubts posted",
		}),
		DoubtsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_doubts_claimed_total",
			Help: "Total number of doubts claimed by tutors",
		}),
		DoubtsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_doubts_resolved_total",
			Help: "Total number of doubts resolved",
		}),
		ClaimConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_doubt_claim_conflicts_total",
			Help: "Claim attempts rejected because the doubt was no longer open",
		}),
		UsersSignedUp: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_users_signed_up_total",
			Help: "Total number of user registrations",
		}),
		QuizzesScored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutorhub_quiz_attempts_total",
			Help: "Total number of quiz attempts scored",
		}),
		AuditPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorhub_audit_events_total",
			Help: "Audit events published by type",
		}, []string{"type"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutorhub_http_request_duration_seconds",
			Help:    "HTTP request duration by method and path",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
	}
}

// NewForTest returns metrics backed by a private registry so parallel tests
// do not trip duplicate registration panics.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		DoubtsCreated:  factory.NewCounter(prometheus.CounterOpts{Name: "tutorhub_doubts_created_total"}),
		DoubtsClaimed:  factory.NewCounter(prometheus.CounterOpts{Name: "tutorhub_doubts_claimed_total"}),
		DoubtsResolved: factory.NewCounter(prometheus.CounterOpts{Name: "tutorhub_doubts_resolved_total"}),
		ClaimConflicts: factory.NewCounter(prometheus.CounterOpts{Name: "tutorhub_doubt_claim_conflicts_total"}),
		UsersSignedUp:  factory.NewCounter(prometheus.CounterOpts{Name: "tutorhub_users_signed_up_total"}),
		QuizzesScored:  factory.NewCounter(prometheus.CounterOpts{Name: "tutorhub_quiz_attempts_total"}),
		AuditPublished: factory.NewCounterVec(prometheus.CounterOpts{Name: "tutorhub_audit_events_total"}, []string{"type"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "tutorhub_http_request_duration_seconds",
		}, []string{"method", "path"}),
	}
}

// ObserveRequestDuration records one HTTP request.
func (m *Metrics) ObserveRequestDuration(method, path string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	}
}

// IncrementAuditPublished records a published audit event.
func (m *Metrics) IncrementAuditPublished(eventType string) {
	if m != nil {
		m.AuditPublished.WithLabelValues(eventType).Inc()
	}
}
