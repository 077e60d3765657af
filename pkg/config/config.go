package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	// StoreBackend selects the inventory store: sql (GORM) or kv (one JSON blob per owner in Redis).
	StoreBackend string `mapstructure:"STORE_BACKEND" validate:"required,oneof=sql kv"`
	DBDriver     string `mapstructure:"DB_DRIVER" validate:"required,oneof=postgres mysql sqlite"`
	DatabaseURL  string `mapstructure:"DATABASE_URL" validate:"required_if=StoreBackend sql"`

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"required,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AsynqConcurrency int `mapstructure:"ASYNQ_CONCURRENCY" validate:"gte=1,lte=1000"`
	// MoveMode selects how drag positions are persisted: direct (goroutine) or queue (asynq).
	MoveMode string `mapstructure:"MOVE_MODE" validate:"required,oneof=direct queue"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	IconBackend string `mapstructure:"ICON_BACKEND" validate:"required,oneof=fs s3"`
	IconDir     string `mapstructure:"ICON_DIR" validate:"required_if=IconBackend fs"`
	IconBaseURL string `mapstructure:"ICON_BASE_URL" validate:"required,url"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT" validate:"required_if=IconBackend s3"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket    string `mapstructure:"S3_BUCKET" validate:"required_if=IconBackend s3"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`

	NATSURL string `mapstructure:"NATS_URL"`

	// Nodes created without an explicit position land in [PlacementMin, PlacementMin+PlacementSpan) on both axes.
	PlacementMin  float64 `mapstructure:"PLACEMENT_MIN"`
	PlacementSpan float64 `mapstructure:"PLACEMENT_SPAN" validate:"gt=0"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`
}

var (
	cfg      *Config
	validate = validator.New(validator.WithRequiredStructEnabled())
)

var keys = []string{
	"APP_ENV",
	"HTTP_ADDR",
	"SHUTDOWN_TIMEOUT",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"STORE_BACKEND",
	"DB_DRIVER",
	"DATABASE_URL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"ASYNQ_CONCURRENCY",
	"MOVE_MODE",
	"JWT_SECRET",
	"ICON_BACKEND",
	"ICON_DIR",
	"ICON_BASE_URL",
	"S3_ENDPOINT",
	"S3_ACCESS_KEY",
	"S3_SECRET_KEY",
	"S3_BUCKET",
	"S3_USE_SSL",
	"NATS_URL",
	"PLACEMENT_MIN",
	"PLACEMENT_SPAN",
	"GOMAXPROCS",
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_BACKEND", "sql")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("ASYNQ_CONCURRENCY", 10)
	v.SetDefault("MOVE_MODE", "direct")
	v.SetDefault("ICON_BACKEND", "fs")
	v.SetDefault("ICON_DIR", "./data/icons")
	v.SetDefault("ICON_BASE_URL", "http://localhost:8080/icons")
	v.SetDefault("PLACEMENT_MIN", 200)
	v.SetDefault("PLACEMENT_SPAN", 400)
	v.SetDefault("GOMAXPROCS", 0)

	// Optional config file
	_ = v.ReadInConfig()

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if s := v.GetString("SHUTDOWN_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	cfg = &c
	return cfg, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}
