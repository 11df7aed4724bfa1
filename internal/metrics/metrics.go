// Package metrics holds the Prometheus collectors greentrail records.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "greentrail"

// Outcome label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

//nolint:gochecknoglobals // Collectors are registered once with the default registry.
var (
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "questionnaire_step_transitions_total",
			Help:      "Total number of questionnaire step transitions",
		},
		[]string{"step", "direction"},
	)

	BlockedAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "questionnaire_blocked_advances_total",
			Help:      "Total number of advances blocked by an invalid answer",
		},
		[]string{"step"},
	)

	ImpactPreviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "questionnaire_impact_previews_total",
			Help:      "Total number of impact previews shown",
		},
		[]string{"step"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "questionnaire_submissions_total",
			Help:      "Total number of questionnaire submissions",
		},
		[]string{"status"},
	)

	SubmittedCO2 = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "participant_footprint_kg",
			Help:      "Submitted participant footprints in kg CO2",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	StateRecoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "state_recoveries_total",
			Help:      "Total number of persisted sessions discarded as unusable",
		},
		[]string{"reason"},
	)

	StateWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "state_write_failures_total",
			Help:      "Total number of failed session state writes",
		},
	)

	ProjectCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "project_cache_hits_total",
			Help:      "Total number of project lookups served from cache",
		},
	)

	ProjectCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "project_cache_misses_total",
			Help:      "Total number of project lookups that reached the provider",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_sessions",
			Help:      "Number of open questionnaire sessions",
		},
	)
)

// Direction label values for StepTransitions.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
)
