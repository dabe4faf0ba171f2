// Command example-redis mirrors cmd/example but swaps in the Redis
// Queue and Store backends, driven by internal/config.Load.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relaytask/taskqueue/internal/config"
	"github.com/relaytask/taskqueue/internal/logger"
	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/queue"
	"github.com/relaytask/taskqueue/internal/store"
	"github.com/relaytask/taskqueue/pkg/taskqueue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, os.Getenv("ENV") != "production")
	log := logger.Get()

	m := metrics.New(nil)

	redisQueue, err := queue.NewRedisQueue(&cfg.Redis, &cfg.Queue, *log, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis queue")
	}

	redisStore, err := store.NewRedisStore(&cfg.Redis, &cfg.Queue, *log, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis store")
	}

	coordinator, err := taskqueue.NewBuilder(cfg.Worker.Concurrency).
		WithQueue(redisQueue).
		WithStore(redisStore).
		WithMetrics(m).
		WithPollInterval(cfg.Worker.PollInterval).
		WithShutdownTimeout(cfg.Worker.ShutdownTimeout).
		WithID(cfg.Worker.ID).
		Build()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build coordinator")
	}

	coordinator.RegisterHandler("add", addHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator.Start(ctx)

	sig := taskqueue.NewSignature("add", []any{5, 3}, nil)
	id, err := coordinator.Enqueue(ctx, sig, 3)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to enqueue task")
	}
	fmt.Printf("Task ID: %s\n", id)

	for {
		t, err := coordinator.Get(ctx, id)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read task")
		}
		if t != nil && t.IsFinished() {
			fmt.Printf("Task result: %s\n", string(t.Result))
			break
		}
		time.Sleep(1 * time.Second)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()
	if err := coordinator.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		os.Exit(1)
	}
}

func addHandler(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
	a, aok := args[0].(float64)
	b, bok := args[1].(float64)
	if !aok || !bok {
		return nil, fmt.Errorf("add: expected two numeric arguments")
	}

	fmt.Printf("Starting addition of %v + %v\n", a, b)
	select {
	case <-time.After(3 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	result := int64(a) + int64(b)
	fmt.Printf("Result: %d\n", result)
	return []byte(fmt.Sprintf("%d", result)), nil
}
