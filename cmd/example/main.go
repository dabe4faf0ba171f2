// Command example walks through the in-memory Coordinator: register a
// handler, enqueue one task, poll until it finishes, print the result.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relaytask/taskqueue/internal/logger"
	"github.com/relaytask/taskqueue/pkg/taskqueue"
)

func main() {
	logger.Init("info", true)
	log := logger.Get()

	coordinator, err := taskqueue.NewBuilder(2).Build()
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
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
