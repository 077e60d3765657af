package app

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/invmap/engine/internal/storage"
	"github.com/invmap/engine/internal/store"
	"github.com/invmap/engine/pkg/config"
	"github.com/invmap/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "json"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestOpenSQLBackend(t *testing.T) {
	cfg := &config.Config{StoreBackend: "sql", DBDriver: "sqlite", DatabaseURL: "file::memory:", MoveMode: "direct"}
	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	require.IsType(t, &store.SQLAdapter{}, b.Store)
	require.Nil(t, b.Redis)
	require.NoError(t, b.Migrate())

	checks := b.Checks()
	require.Contains(t, checks, "database")
	require.Contains(t, checks, "store")
	for name, check := range checks {
		require.NoError(t, check(context.Background()), name)
	}
}

func TestOpenKVBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{StoreBackend: "kv", DBDriver: "sqlite", DatabaseURL: "file::memory:", MoveMode: "queue", RedisAddr: mr.Addr()}
	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	require.IsType(t, &store.KVAdapter{}, b.Store)
	require.NotNil(t, b.Redis)
	require.Contains(t, b.Checks(), "redis")
}

func TestOpenKVBackendRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{StoreBackend: "kv", DBDriver: "sqlite", DatabaseURL: "file::memory:", RedisAddr: addr}
	_, err := Open(context.Background(), cfg)
	require.ErrorContains(t, err, "redis connection failed")
}

func TestIconsFilesystem(t *testing.T) {
	dir := t.TempDir()
	icons, served, err := Icons(context.Background(), &config.Config{IconBackend: "fs", IconDir: dir, IconBaseURL: "http://localhost/icons"})
	require.NoError(t, err)
	require.IsType(t, &storage.FSStore{}, icons)
	require.Equal(t, dir, served)
}
