package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/api"
	"github.com/invmap/engine/internal/api/handlers"
	"github.com/invmap/engine/internal/app"
	"github.com/invmap/engine/internal/events"
	"github.com/invmap/engine/internal/inventory"
	"github.com/invmap/engine/internal/queue/tasks"
	"github.com/invmap/engine/internal/repository"
	"github.com/invmap/engine/internal/services"
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

	log.Info("starting inventory engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.StoreBackend),
		zap.String("move_mode", cfg.MoveMode),
	)

	ctx := context.Background()
	backend, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open backend", zap.Error(err))
	}
	defer backend.Close()
	if err := backend.Migrate(); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		if cfg.AppEnv == "production" {
			log.Fatal("JWT_SECRET is required in production")
		}
		log.Warn("JWT_SECRET not set, using development default")
		jwtSecret = []byte("change-me-in-production-please")
	}

	opts := []inventory.Option{
		inventory.WithPlacement(inventory.NewPlacement(cfg.PlacementMin, cfg.PlacementSpan, nil)),
	}
	var waitSink func()
	switch cfg.MoveMode {
	case "queue":
		client := asynq.NewClientFromRedisClient(backend.Redis)
		sink := tasks.NewQueueSink(client)
		opts = append(opts, inventory.WithSink(sink))
		waitSink = sink.Wait
	default:
		sink := inventory.NewDirectSink(backend.Store, 10*time.Second)
		opts = append(opts, inventory.WithSink(sink))
		waitSink = sink.Wait
	}
	registry := inventory.NewRegistry(backend.Store, opts...)

	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatal("nats connection failed", zap.Error(err))
		}
		defer nc.Drain()
		registry.Subscribe(events.NewPublisher(nc).Publish)
		log.Info("publishing inventory changes", zap.String("nats", nc.ConnectedUrl()))
	}

	icons, iconDir, err := app.Icons(ctx, cfg)
	if err != nil {
		log.Fatal("icon storage unavailable", zap.Error(err))
	}

	checks := map[string]handlers.Check{}
	for name, fn := range backend.Checks() {
		checks[name] = fn
	}

	router := api.NewRouter(api.Dependencies{
		HMACSecret:       jwtSecret,
		AuthHandler:      handlers.NewAuthHandler(services.NewAuthService(repository.NewUserRepository(backend.DB), jwtSecret)),
		InventoryHandler: handlers.NewInventoryHandler(registry),
		IconsHandler:     handlers.NewIconsHandler(icons),
		HealthHandler:    handlers.NewHealthHandler(checks),
		IconDir:          iconDir,
		RateLimit:        10,
		RateBurst:        20,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	// pending position writes finish before the store closes
	waitSink()
	log.Info("server exited")
}
