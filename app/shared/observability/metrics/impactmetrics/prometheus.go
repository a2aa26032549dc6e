package impactmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "terrapulse"

type prometheusMetrics struct {
	attempts        *prometheus.CounterVec
	successes       *prometheus.CounterVec
	failures        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	points          *prometheus.CounterVec
	badges          *prometheus.CounterVec
	unconfirmed     prometheus.Counter
	reconciliations prometheus.Counter
}

// NewPrometheus registers the impact collectors on reg.
func NewPrometheus(reg prometheus.Registerer) ImpactMetrics {
	factory := promauto.With(reg)
	labels := []string{"operation", "service"}

	return &prometheusMetrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, labels),
		successes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, labels),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failure_total",
			Help:      "Service operations that failed or panicked.",
		}, labels),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
		points: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points granted by logged activities.",
		}, []string{"activity_type"}),
		badges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_unlocked_total",
			Help:      "First-time badge unlocks.",
		}, []string{"badge_id"}),
		unconfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_unconfirmed_total",
			Help:      "Submissions returned as unconfirmed after a partial write.",
		}),
		reconciliations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_jobs_scheduled_total",
			Help:      "Ledger reconcile jobs enqueued.",
		}),
	}
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordPointsAwarded(_ context.Context, activityType string, points int) {
	m.points.WithLabelValues(activityType).Add(float64(points))
}

func (m *prometheusMetrics) RecordBadgeUnlocked(_ context.Context, badgeID string) {
	m.badges.WithLabelValues(badgeID).Inc()
}

func (m *prometheusMetrics) RecordSubmissionUnconfirmed(_ context.Context) {
	m.unconfirmed.Inc()
}

func (m *prometheusMetrics) RecordReconcileScheduled(_ context.Context) {
	m.reconciliations.Inc()
}
