package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/relaytask/taskqueue/internal/logger"
	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/queue"
	"github.com/relaytask/taskqueue/internal/task"
)

// ErrShutdownTimeout is returned by Shutdown when workers do not exit
// within the configured bound.
var ErrShutdownTimeout = task.ErrShutdownTimeout

// Pool spawns a fixed number of long-lived workers that each poll the
// Queue and drive popped tasks through an Executor.
type Pool struct {
	id              string
	concurrency     int
	queue           queue.Queue
	executor        *Executor
	pollInterval    time.Duration
	shutdownTimeout time.Duration
	metrics         *metrics.Metrics

	wg     sync.WaitGroup
	stopCh chan struct{}
	log    zerolog.Logger
}

// NewPool builds a Pool. id, if empty, gets a generated suffix.
func NewPool(id string, concurrency int, q queue.Queue, executor *Executor, pollInterval, shutdownTimeout time.Duration, m *metrics.Metrics) *Pool {
	if id == "" {
		id = fmt.Sprintf("pool-%s", uuid.New().String()[:8])
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Pool{
		id:              id,
		concurrency:     concurrency,
		queue:           q,
		executor:        executor,
		pollInterval:    pollInterval,
		shutdownTimeout: shutdownTimeout,
		metrics:         m,
		stopCh:          make(chan struct{}),
		log:             logger.WithComponent("worker_pool"),
	}
}

// Start spawns concurrency worker goroutines. Safe to call once.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.metrics.SetActiveWorkers(float64(p.concurrency))
	p.log.Info().Str("pool_id", p.id).Int("concurrency", p.concurrency).Msg("worker pool started")
}

// Shutdown broadcasts a stop signal to every worker via close(stopCh)
// and waits up to shutdownTimeout for them to exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		p.metrics.SetActiveWorkers(0)
		p.log.Info().Str("pool_id", p.id).Msg("worker pool stopped gracefully")
		return nil
	case <-timer.C:
		p.log.Warn().Str("pool_id", p.id).Msg("worker pool shutdown timed out")
		return ErrShutdownTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker(ctx context.Context, workerNum int) {
	defer p.wg.Done()

	workerID := fmt.Sprintf("%s-w%d", p.id, workerNum)
	log := logger.WithWorker(workerID)
	log.Info().Msg("worker started")

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		t, err := p.queue.Pop(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to pop task")
			if !p.sleep(ctx) {
				return
			}
			continue
		}

		if t == nil {
			if !p.sleep(ctx) {
				return
			}
			continue
		}

		busyStart := time.Now()
		if err := p.executor.Execute(ctx, t); err != nil {
			log.Warn().Err(err).Str("task_id", t.ID).Msg("task execution did not complete successfully")
		}
		p.metrics.RecordWorkerBusyTime(workerID, time.Since(busyStart).Seconds())
	}
}

// sleep waits pollInterval before the next poll, returning false if a
// stop/cancellation arrives during the wait.
func (p *Pool) sleep(ctx context.Context) bool {
	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-p.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}
