package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/app"
	"github.com/invmap/engine/internal/queue/tasks"
	"github.com/invmap/engine/pkg/config"
	"github.com/invmap/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	backend, err := app.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to open backend", zap.Error(err))
	}
	defer backend.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Queues:      map[string]int{tasks.QueueName: 1},
		},
	)

	mux := asynq.NewServeMux()
	handler := tasks.NewMoveTaskHandler(backend.Store)
	mux.HandleFunc(tasks.TypeMove, handler.HandleMove)

	errCh := make(chan error, 1)
	go func() {
		log.Info("asynq worker starting",
			zap.Int("concurrency", cfg.AsynqConcurrency),
			zap.String("store", cfg.StoreBackend))
		if err := srv.Run(mux); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("worker stopped with error", zap.Error(err))
	}

	// in-flight moves finish before Shutdown returns
	srv.Shutdown()
}
