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

	ArtifactsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifacts_normalized_total",
			Help: "Normalized artifacts by action and resulting kind",
		},
		[]string{"action", "kind"},
	)

	// NormalizationFallbacks counts artifacts that came out empty or as
	// formatted text instead of their structured kind.
	NormalizationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalization_fallbacks_total",
			Help: "Normalizations that produced no structured content",
		},
		[]string{"action"},
	)

	ArtifactCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_cache_requests_total",
			Help: "Artifact cache lookups by result (local_hit, hit, miss, error)",
		},
		[]string{"result"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Study backend tool request latency",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"action", "status"},
	)
)

