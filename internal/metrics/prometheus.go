// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the eco-impact engine.
var (
	// Counters.
	DeviceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_transitions_total",
			Help: "Total number of device status transitions",
		},
		[]string{"status"},
	)

	ImpactReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impact_reports_total",
			Help: "Total number of impact reports recorded",
		},
		[]string{"device_type"},
	)

	PointsCreditedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_credited_total",
			Help: "Total points credited to users",
		},
		[]string{"reason"},
	)

	PickupsScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickups_scheduled_total",
			Help: "Total number of pickups scheduled",
		},
		[]string{"status"},
	)

	CapacityRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickup_capacity_rejections_total",
			Help: "Total scheduling requests rejected because daily capacity was reached",
		},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of badges awarded",
		},
		[]string{"badge"},
	)

	ChallengesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenges_completed_total",
			Help: "Total number of challenge completions",
		},
		[]string{"type"},
	)

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Total scheduled sweep executions",
		},
		[]string{"sweep", "status"},
	)

	// Gauges.
	OpenPickups = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "open_pickups",
			Help: "Current number of non-terminal pickups per organization",
		},
		[]string{"organization"},
	)

	ActiveBadgeHolders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_badge_holders",
			Help: "Current number of users holding each badge",
		},
		[]string{"badge"},
	)

	// Histograms.
	DeviceEstimatedValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "device_estimated_value",
			Help:    "Distribution of estimated device values",
			Buckets: prometheus.ExponentialBuckets(10, 2, 8), // 10 to ~1280
		},
	)

	PickupRating = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pickup_rating",
			Help:    "Distribution of pickup ratings",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		},
	)
)

// RecordDeviceTransition records a device status transition.
func RecordDeviceTransition(status string) {
	DeviceTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordImpactReport records a newly written impact report.
func RecordImpactReport(deviceType string) {
	ImpactReportsTotal.WithLabelValues(deviceType).Inc()
}

// RecordPointsCredited records a point credit with its reason.
func RecordPointsCredited(reason string, points int) {
	PointsCreditedTotal.WithLabelValues(reason).Add(float64(points))
}

// RecordPickupScheduled records a scheduled pickup.
func RecordPickupScheduled(status string) {
	PickupsScheduledTotal.WithLabelValues(status).Inc()
}

// RecordCapacityRejection records a capacity-reached rejection.
func RecordCapacityRejection() {
	CapacityRejectionsTotal.Inc()
}

// RecordBadgeAwarded records a badge award.
func RecordBadgeAwarded(badge string) {
	BadgesAwardedTotal.WithLabelValues(badge).Inc()
}

// SetActiveBadgeHolders sets the holder count gauge for a badge.
func SetActiveBadgeHolders(badge string, count int) {
	ActiveBadgeHolders.WithLabelValues(badge).Set(float64(count))
}

// RecordChallengeCompleted records a challenge completion.
func RecordChallengeCompleted(challengeType string) {
	ChallengesCompletedTotal.WithLabelValues(challengeType).Inc()
}

// RecordSweepRun records a scheduled sweep execution.
func RecordSweepRun(sweep, status string) {
	SweepRunsTotal.WithLabelValues(sweep, status).Inc()
}

// ObserveEstimatedValue records an estimated device value.
func ObserveEstimatedValue(value int) {
	DeviceEstimatedValue.Observe(float64(value))
}

// ObservePickupRating records a pickup rating.
func ObservePickupRating(score int) {
	PickupRating.Observe(float64(score))
}
