package store

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

// RedisStore implements Store over the external KV protocol's set,
// get, del, and keys operations: each task is mirrored under its own
// "<prefix>:<id>" key.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewRedisStore dials Redis and verifies connectivity before returning.
// A positive queueCfg.TaskRetentionDays sets a TTL that is applied to
// terminal tasks stored via Update.
func NewRedisStore(cfg *config.RedisConfig, queueCfg *config.QueueConfig, log zerolog.Logger, m *metrics.Metrics) (*RedisStore, error) {
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

	var ttl time.Duration
	if queueCfg.TaskRetentionDays > 0 {
		ttl = time.Duration(queueCfg.TaskRetentionDays) * 24 * time.Hour
	}

	return &RedisStore{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		log:     log.With().Str("component", "redis_store").Logger(),
		metrics: m,
	}, nil
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *RedisStore) Store(ctx context.Context, t *task.Task) error {
	return s.set(ctx, t, 0)
}

// Update re-stores a task, applying the configured TTL once it has
// reached a terminal status.
func (s *RedisStore) Update(ctx context.Context, t *task.Task) error {
	ttl := time.Duration(0)
	if t.IsFinished() {
		ttl = s.ttl
	}
	return s.set(ctx, t, ttl)
}

func (s *RedisStore) set(ctx context.Context, t *task.Task, ttl time.Duration) error {
	start := time.Now()
	data, err := t.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := s.client.Set(ctx, s.key(t.ID), data, ttl).Err(); err != nil {
		s.metrics.RecordRedisError("set")
		return fmt.Errorf("failed to store task: %w", err)
	}
	s.metrics.RecordRedisOperation("set", time.Since(start).Seconds())
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*task.Task, error) {
	start := time.Now()
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.metrics.RecordRedisError("get")
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	s.metrics.RecordRedisOperation("get", time.Since(start).Seconds())

	return task.FromJSON(data)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		s.metrics.RecordRedisError("del")
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.metrics.RecordRedisOperation("del", time.Since(start).Seconds())
	return nil
}

// List scans all task keys under this store's prefix (keys) and loads
// each one. Intended for small/administrative use, not a hot path.
func (s *RedisStore) List(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()
	pattern := s.key("*")
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		s.metrics.RecordRedisError("keys")
		return nil, fmt.Errorf("failed to list task keys: %w", err)
	}
	s.metrics.RecordRedisOperation("keys", time.Since(start).Seconds())

	tasks := make([]*task.Task, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load task at %s: %w", key, err)
		}
		t, err := task.FromJSON(data)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("skipping unparseable task record")
			continue
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client for direct access.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}
