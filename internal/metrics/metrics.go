// Package metrics defines the Prometheus series the coordinator,
// workers, and backends record against. Metrics is constructed with an
// explicit prometheus.Registerer rather than registering to the global
// default, so multiple Coordinators (e.g. in tests) never collide on
// the same metric names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every series this module records. Use New to build
// one backed by a specific registry, or nil for a private registry.
type Metrics struct {
	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	TaskRetries    *prometheus.CounterVec

	QueueDepth prometheus.Gauge

	ActiveWorkers  prometheus.Gauge
	WorkerBusyTime *prometheus.CounterVec

	RegistryBusyTotal prometheus.Counter

	RedisOperationDuration *prometheus.HistogramVec
	RedisErrors            *prometheus.CounterVec
}

// New builds a Metrics instance whose series are registered against
// reg. A nil reg gets its own fresh prometheus.NewRegistry(), so
// callers that don't care about exposing a /metrics endpoint (tests,
// the in-memory example program) never touch the process-wide default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskqueue_tasks_submitted_total",
				Help: "Total number of tasks submitted",
			},
			[]string{"name"},
		),
		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskqueue_tasks_completed_total",
				Help: "Total number of tasks that reached a terminal status",
			},
			[]string{"name", "status"},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskqueue_task_duration_seconds",
				Help:    "Task execution duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"name"},
		),
		TaskRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskqueue_task_retries_total",
				Help: "Total number of task retries",
			},
			[]string{"name"},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskqueue_queue_depth",
				Help: "Current number of pending tasks in the queue",
			},
		),
		ActiveWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskqueue_active_workers",
				Help: "Current number of active workers",
			},
		),
		WorkerBusyTime: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskqueue_worker_busy_seconds_total",
				Help: "Total time workers spent processing tasks",
			},
			[]string{"worker_id"},
		),
		RegistryBusyTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "taskqueue_registry_busy_total",
				Help: "Total number of handler lookups that found the registry lock contended",
			},
		),
		RedisOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskqueue_redis_operation_duration_seconds",
				Help:    "Redis operation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskqueue_redis_errors_total",
				Help: "Total number of Redis errors",
			},
			[]string{"operation"},
		),
	}
}

// RecordTaskSubmission records a task submission.
func (m *Metrics) RecordTaskSubmission(name string) {
	m.TasksSubmitted.WithLabelValues(name).Inc()
}

// RecordTaskCompletion records a task reaching a terminal status.
func (m *Metrics) RecordTaskCompletion(name, status string, duration float64) {
	m.TasksCompleted.WithLabelValues(name, status).Inc()
	m.TaskDuration.WithLabelValues(name).Observe(duration)
}

// RecordTaskRetry records a task retry.
func (m *Metrics) RecordTaskRetry(name string) {
	m.TaskRetries.WithLabelValues(name).Inc()
}

// UpdateQueueDepth updates the queue depth gauge.
func (m *Metrics) UpdateQueueDepth(depth float64) {
	m.QueueDepth.Set(depth)
}

// SetActiveWorkers sets the active workers gauge.
func (m *Metrics) SetActiveWorkers(count float64) {
	m.ActiveWorkers.Set(count)
}

// RecordWorkerBusyTime records time spent processing.
func (m *Metrics) RecordWorkerBusyTime(workerID string, duration float64) {
	m.WorkerBusyTime.WithLabelValues(workerID).Add(duration)
}

// RecordRegistryBusy records a contended, non-blocking handler lookup.
func (m *Metrics) RecordRegistryBusy() {
	m.RegistryBusyTotal.Inc()
}

// RecordRedisOperation records a Redis operation.
func (m *Metrics) RecordRedisOperation(operation string, duration float64) {
	m.RedisOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordRedisError records a Redis error.
func (m *Metrics) RecordRedisError(operation string) {
	m.RedisErrors.WithLabelValues(operation).Inc()
}
