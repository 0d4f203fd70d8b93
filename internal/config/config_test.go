package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/displayhub_test")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 300*time.Second, cfg.PairTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, time.Duration(0), cfg.DeviceTokenTTL, "device tokens do not expire by default")
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadConfig_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/displayhub_test")
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_SECRET")

	t.Setenv("APP_SECRET", "a-real-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadConfig_ParsesTTLsAndOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/displayhub_test")
	t.Setenv("PAIR_TTL_SECONDS", "120")
	t.Setenv("SESSION_TTL_MINUTES", "60")
	t.Setenv("DEVICE_TOKEN_TTL_HOURS", "8760")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.PairTTL)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 8760*time.Hour, cfg.DeviceTokenTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfig_RejectsBadNumbers(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/displayhub_test")
	t.Setenv("PAIR_TTL_SECONDS", "five minutes")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAIR_TTL_SECONDS")
}
