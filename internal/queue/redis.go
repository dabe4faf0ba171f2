package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/relaytask/taskqueue/internal/config"
	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/task"
)

// RedisQueue implements Queue over the six-operation external KV
// protocol (list-left-push, list-right-pop, set, get): a single Redis
// list holds pending task IDs in FIFO order, and each task's full
// state is mirrored under its own key for GetByID/Update.
type RedisQueue struct {
	client    *redis.Client
	queueKey  string
	keyPrefix string
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// NewRedisQueue dials Redis and verifies connectivity before returning.
func NewRedisQueue(cfg *config.RedisConfig, queueCfg *config.QueueConfig, log zerolog.Logger, m *metrics.Metrics) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := queueCfg.KeyPrefix
	if prefix == "" {
		prefix = "taskqueue"
	}

	return &RedisQueue{
		client:    client,
		queueKey:  prefix + ":pending",
		keyPrefix: prefix,
		log:       log.With().Str("component", "redis_queue").Logger(),
		metrics:   m,
	}, nil
}

func (q *RedisQueue) taskKey(id string) string {
	return fmt.Sprintf("%s:task:%s", q.keyPrefix, id)
}

// Push stores the task's current state and left-pushes its ID onto
// the pending list (list-left-push).
func (q *RedisQueue) Push(ctx context.Context, t *task.Task) error {
	start := time.Now()
	data, err := t.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.Set(ctx, q.taskKey(t.ID), data, 0).Err(); err != nil {
		q.metrics.RecordRedisError("set")
		return fmt.Errorf("failed to store task data: %w", err)
	}

	if err := q.client.LPush(ctx, q.queueKey, t.ID).Err(); err != nil {
		q.metrics.RecordRedisError("list-left-push")
		return fmt.Errorf("failed to push task id: %w", err)
	}

	q.metrics.RecordRedisOperation("list-left-push", time.Since(start).Seconds())
	return nil
}

// Pop right-pops the next task ID off the pending list (list-right-pop)
// and loads its full state. Returns (nil, nil) when the queue is empty.
func (q *RedisQueue) Pop(ctx context.Context) (*task.Task, error) {
	start := time.Now()
	id, err := q.client.RPop(ctx, q.queueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		q.metrics.RecordRedisError("list-right-pop")
		return nil, fmt.Errorf("failed to pop task id: %w", err)
	}
	q.metrics.RecordRedisOperation("list-right-pop", time.Since(start).Seconds())

	return q.GetByID(ctx, id)
}

// GetByID loads a task's current state from its mirror key (get).
func (q *RedisQueue) GetByID(ctx context.Context, id string) (*task.Task, error) {
	start := time.Now()
	data, err := q.client.Get(ctx, q.taskKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		q.metrics.RecordRedisError("get")
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	q.metrics.RecordRedisOperation("get", time.Since(start).Seconds())

	return task.FromJSON(data)
}

// Update overwrites a task's mirror key (set).
func (q *RedisQueue) Update(ctx context.Context, t *task.Task) error {
	start := time.Now()
	data, err := t.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.Set(ctx, q.taskKey(t.ID), data, 0).Err(); err != nil {
		q.metrics.RecordRedisError("set")
		return fmt.Errorf("failed to update task: %w", err)
	}
	q.metrics.RecordRedisOperation("set", time.Since(start).Seconds())
	return nil
}

// Len reports the number of IDs still pending in the queue.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.queueKey).Result()
	if err != nil {
		q.metrics.RecordRedisError("list-len")
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Client returns the underlying Redis client for direct access (del, keys).
func (q *RedisQueue) Client() *redis.Client {
	return q.client
}
