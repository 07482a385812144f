// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// Screening-specific metrics

	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_assessments_total",
			Help: "Total number of risk assessments by resulting tier",
		},
		[]string{"risk_level"},
	)

	AssessmentScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screening_assessment_score",
			Help:    "Distribution of deterministic risk scores",
			Buckets: []float64{10, 25, 40, 50, 60, 75, 90, 100},
		},
	)

	NarrativeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "screening_narrative_fallbacks_total",
			Help: "Total number of assessments that used the static fallback narrative",
		},
	)

	JudicialSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_judicial_searches_total",
			Help: "Total number of judicial record lookups by search type and outcome",
		},
		[]string{"search_type", "outcome"},
	)
)
