// Package metrics provides Prometheus instrumentation for reqflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for reqflow components.
type Registry struct {
	// Task Metrics
	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec
	TasksRetried   *prometheus.CounterVec
	TasksCanceled  *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec

	// Batch Metrics
	BatchesSubmitted *prometheus.CounterVec
	BatchesFinished  *prometheus.CounterVec
	BatchesAborted   *prometheus.CounterVec
	BatchesCanceled  *prometheus.CounterVec
	BatchesActive    *prometheus.GaugeVec

	// Scheduler State Metrics
	QueueDepth     *prometheus.GaugeVec
	ActiveWorkers  *prometheus.GaugeVec
	MaxConcurrency *prometheus.GaugeVec

	// Transfer Metrics
	BytesTransferred *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by reqflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Task Metrics
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks submitted",
			},
			[]string{"scheduler_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks that completed successfully",
			},
			[]string{"scheduler_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed terminally",
			},
			[]string{"scheduler_name"},
		),

		TasksRetried: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "tasks_retried_total",
				Help:      "Total number of tasks re-enqueued after a first failure",
			},
			[]string{"scheduler_name"},
		),

		TasksCanceled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "tasks_canceled_total",
				Help:      "Total number of tasks canceled by stop requests",
			},
			[]string{"scheduler_name"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler_name"},
		),

		// Batch Metrics
		BatchesSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "batches_submitted_total",
				Help:      "Total number of batches submitted",
			},
			[]string{"scheduler_name"},
		),

		BatchesFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "batches_finished_total",
				Help:      "Total number of batches that ran to completion",
			},
			[]string{"scheduler_name"},
		),

		BatchesAborted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "batches_aborted_total",
				Help:      "Total number of batches aborted by a task failure",
			},
			[]string{"scheduler_name"},
		),

		BatchesCanceled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "batches_canceled_total",
				Help:      "Total number of batches canceled by stop requests",
			},
			[]string{"scheduler_name"},
		),

		BatchesActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "batches_active",
				Help:      "Number of batches currently tracked",
			},
			[]string{"scheduler_name"},
		),

		// Scheduler State Metrics
		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "queue_depth",
				Help:      "Number of tasks waiting for dispatch",
			},
			[]string{"scheduler_name"},
		),

		ActiveWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "active_workers",
				Help:      "Number of tasks currently executing",
			},
			[]string{"scheduler_name"},
		),

		MaxConcurrency: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "reqflow",
				Subsystem: "scheduler",
				Name:      "max_concurrency",
				Help:      "Configured executor concurrency ceiling",
			},
			[]string{"scheduler_name"},
		),

		// Transfer Metrics
		BytesTransferred: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reqflow",
				Subsystem: "transfer",
				Name:      "bytes_total",
				Help:      "Total bytes transferred, by direction",
			},
			[]string{"scheduler_name", "direction"},
		),
	}
}
