// Package app opens the backing services named by the configuration.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invmap/engine/internal/repository"
	"github.com/invmap/engine/internal/storage"
	"github.com/invmap/engine/internal/store"
	"github.com/invmap/engine/pkg/config"
	"github.com/invmap/engine/pkg/database"
	"github.com/invmap/engine/pkg/logger"
)

// LocalDSN holds users when the kv backend runs without DATABASE_URL.
const LocalDSN = "file:invmap.db"

// Backend bundles the database, the optional Redis client and the
// inventory store built on one of them.
type Backend struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store store.Adapter

	closers []func() error
}

// Open connects to the database, to Redis when the kv store or the move
// queue needs it, and builds the inventory store.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	driver, dsn := cfg.DBDriver, cfg.DatabaseURL
	if dsn == "" {
		driver, dsn = "sqlite", LocalDSN
	}
	db, err := database.Open(ctx, database.Options{Driver: driver, DSN: dsn, Verbose: cfg.LogLevel == "debug"})
	if err != nil {
		return nil, err
	}
	b.DB = db
	b.closers = append(b.closers, func() error { return database.Close(db) })

	if cfg.StoreBackend == "kv" || cfg.MoveMode == "queue" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			b.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		b.Redis = rdb
		b.closers = append(b.closers, rdb.Close)
	}

	switch cfg.StoreBackend {
	case "kv":
		b.Store = store.NewKVAdapter(b.Redis)
	default:
		b.Store = store.NewSQLAdapter(db)
	}
	return b, nil
}

// Migrate creates or updates the tables behind the SQL store and users.
func (b *Backend) Migrate() error {
	return repository.AutoMigrate(b.DB)
}

// Checks returns the readiness checks for everything Open connected.
func (b *Backend) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error {
			sqlDB, err := b.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if p, ok := b.Store.(store.Pinger); ok {
		checks["store"] = p.Ping
	}
	if b.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return b.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.L().Warn("close failed", zap.Error(err))
		}
	}
	b.closers = nil
}

// Icons builds the configured icon store. dir is non-empty for the
// filesystem backend and should be served at ICON_BASE_URL.
func Icons(ctx context.Context, cfg *config.Config) (storage.IconStore, string, error) {
	switch cfg.IconBackend {
	case "s3":
		s3, err := storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			BaseURL:   cfg.IconBaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	default:
		fs, err := storage.NewFSStore(cfg.IconDir, cfg.IconBaseURL)
		if err != nil {
			return nil, "", err
		}
		return fs, fs.Dir(), nil
	}
}
