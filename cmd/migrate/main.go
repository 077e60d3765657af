package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/invmap/engine/internal/app"
	"github.com/invmap/engine/internal/repository"
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
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer backend.Close()

	if err := backend.Migrate(); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	for _, m := range repository.Models() {
		log.Info("table ready", zap.String("model", fmt.Sprintf("%T", m)))
	}
	fmt.Fprintln(os.Stdout, "migrations completed")
}
