package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/inbox-assistant/backend/internal/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "ENV", "LOG_PRETTY",
		"QUERY_ENDPOINT", "STORE_DRIVER", "STORE_PATH", "REDIS_URL", "REDIS_PREFIX", "DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, zerolog.InfoLevel, cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, DefaultQueryEndpoint, cfg.Relay.QueryEndpoint)
	assert.Equal(t, storage.DriverMemory, cfg.Store.Driver)
}

func TestLoadServerAddrVariants(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	t.Setenv("PORT", "80 80")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadCORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "chrome-extension://abc, http://localhost:3000 ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"chrome-extension://abc", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"log level":    {"LOG_LEVEL": "loud"},
		"log pretty":   {"LOG_PRETTY": "maybe"},
		"endpoint":     {"QUERY_ENDPOINT": "ftp://example.com/api/query"},
		"driver":       {"STORE_DRIVER": "etcd"},
		"redis url":    {"STORE_DRIVER": "redis"},
		"postgres url": {"STORE_DRIVER": "postgres"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadProductionLogsAsJSON(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, zerolog.DebugLevel, cfg.Log.Level)
}

func TestStoreConfigOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := StoreConfig{Driver: storage.DriverMemory}.Open(ctx)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, mem)

	file, err := StoreConfig{Driver: storage.DriverFile, Path: filepath.Join(t.TempDir(), "t.json")}.Open(ctx)
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, file)

	_, err = StoreConfig{Driver: "etcd"}.Open(ctx)
	assert.Error(t, err)
}

func TestLoadFileDriverDefaultsPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "FILE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, storage.DriverFile, cfg.Store.Driver)
	assert.Equal(t, "./data/transcript.json", cfg.Store.Path)
}
