package taskqueue

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/relaytask/taskqueue/internal/logger"
	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/queue"
	"github.com/relaytask/taskqueue/internal/registry"
	"github.com/relaytask/taskqueue/internal/store"
	"github.com/relaytask/taskqueue/internal/task"
	"github.com/relaytask/taskqueue/internal/worker"
)

// Builder assembles a Coordinator. The zero-value backends are
// process-local in-memory implementations; call WithQueue/WithStore to
// swap in a Redis-backed deployment.
type Builder struct {
	concurrency     int
	queue           queue.Queue
	store           store.Store
	registry        *registry.Registry
	retryPolicy     *task.RetryPolicy
	metrics         *metrics.Metrics
	log             zerolog.Logger
	pollInterval    time.Duration
	shutdownTimeout time.Duration
	id              string
}

// NewBuilder starts a Builder that will run concurrency workers.
func NewBuilder(concurrency int) *Builder {
	return &Builder{
		concurrency:     concurrency,
		log:             logger.WithComponent("coordinator"),
		pollInterval:    time.Second,
		shutdownTimeout: 10 * time.Second,
	}
}

// WithQueue overrides the Queue backend (default: in-memory).
func (b *Builder) WithQueue(q queue.Queue) *Builder {
	b.queue = q
	return b
}

// WithStore overrides the Store backend (default: in-memory).
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithRegistry overrides the handler Registry (default: empty, new).
func (b *Builder) WithRegistry(r *registry.Registry) *Builder {
	b.registry = r
	return b
}

// WithRetryPolicy overrides the retry policy (default: task.ZeroBackoff(),
// the immediate re-enqueue contract).
func (b *Builder) WithRetryPolicy(p *task.RetryPolicy) *Builder {
	b.retryPolicy = p
	return b
}

// WithMetrics overrides the series the coordinator, executor, pool,
// and registry record against (default: metrics.New(nil), a private
// registry, never the process-wide default). Pass the same
// *metrics.Metrics used to build any Redis-backed Queue/Store supplied
// via WithQueue/WithStore so all components share one set of series.
func (b *Builder) WithMetrics(m *metrics.Metrics) *Builder {
	b.metrics = m
	return b
}

// WithLogger overrides the logger the Coordinator logs through. The
// worker pool and executor do not use it; they log through the
// internal/logger package logger.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// WithPollInterval overrides how long an idle worker sleeps between
// empty Pop calls (default: 1s).
func (b *Builder) WithPollInterval(d time.Duration) *Builder {
	b.pollInterval = d
	return b
}

// WithShutdownTimeout overrides how long Shutdown waits for in-flight
// workers to exit before returning ErrShutdownTimeout (default: 10s).
func (b *Builder) WithShutdownTimeout(d time.Duration) *Builder {
	b.shutdownTimeout = d
	return b
}

// WithID sets the coordinator/pool identifier used in logs and metrics.
func (b *Builder) WithID(id string) *Builder {
	b.id = id
	return b
}

// Build assembles the Coordinator, defaulting any backend not set via
// With* to an in-memory implementation.
func (b *Builder) Build() (*Coordinator, error) {
	q := b.queue
	if q == nil {
		q = queue.NewMemoryQueue()
	}
	s := b.store
	if s == nil {
		s = store.NewMemoryStore()
	}
	m := b.metrics
	if m == nil {
		m = metrics.New(nil)
	}
	r := b.registry
	if r == nil {
		r = registry.New(m)
	}
	policy := b.retryPolicy
	if policy == nil {
		policy = task.ZeroBackoff()
	}

	executor := worker.NewExecutor(q, s, r, policy, m)
	pool := worker.NewPool(b.id, b.concurrency, q, executor, b.pollInterval, b.shutdownTimeout, m)

	return &Coordinator{
		queue:    q,
		store:    s,
		registry: r,
		pool:     pool,
		metrics:  m,
		log:      b.log,
	}, nil
}
