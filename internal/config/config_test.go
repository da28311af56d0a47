package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMemoryDriverSkipsDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("CATALOG_TTL", "90m")
	t.Setenv("NOTIFY_ENABLED", "off")

	cfg := Load()
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Empty(t, cfg.DBHost)
	require.Equal(t, 90*time.Minute, cfg.CatalogTTL)
	require.False(t, cfg.NotifyEnabled)
	require.Equal(t, 256, cfg.NotifyBuffer)
	require.Equal(t, 60*24, cfg.AccessTTLMin)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "20")

	cfg := LoadRateLimitConfig()
	require.Equal(t, 20, cfg.Capacity)
	require.Equal(t, 50*time.Second, cfg.TTL)
	require.Equal(t, "user_route", cfg.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "false")

	cfg := LoadCacheConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	require.Equal(t, 30*time.Second, cfg.TTL)
}
