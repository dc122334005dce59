package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://api.mainnet.hiro.so", cfg.Hiro.BaseURL)
	assert.Equal(t, 50, cfg.Hiro.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2025, cfg.Wrapped.TargetYear)
	assert.Equal(t, 5000, cfg.Wrapped.MaxTransactions)
	assert.Equal(t, 12, cfg.Wrapped.LookbackMonths)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WRAPPED_TARGET_YEAR", "2024")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("HIRO_REQUESTS_PER_SEC", "2.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2024, cfg.Wrapped.TargetYear)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 2.5, cfg.Hiro.RequestsPerSec)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WRAPPED_MAX_TRANSACTIONS", "not-a-number")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Wrapped.MaxTransactions)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}
