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

	LeadsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_processed_total",
			Help: "Inbound leads processed, by route and whether the lead was new",
		},
		[]string{"route", "is_new"},
	)

	LeadScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_score",
			Help:    "Distribution of computed lead scores",
			Buckets: []float64{50, 60, 70, 80, 90, 100},
		},
	)

	CallbacksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "n8n_callbacks_total",
			Help: "n8n callbacks by status and outcome",
		},
		[]string{"status", "outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Best-effort notifications by channel and result",
		},
		[]string{"channel", "result"},
	)

	PolicyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spade_policy_decisions_total",
			Help: "Guardrail decisions by kind",
		},
		[]string{"decision"},
	)
)
