package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, int64(1), cfg.UploadCostTokens)
	assert.Equal(t, int64(20), cfg.FallbackTokensPerDollar)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8080/api/v1/generation/callback", cfg.CallbackURL())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SCENE_COST_TOKENS", "50")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ADMIN_USER_IDS", "user_admin")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, int64(50), cfg.SceneCostTokens)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"user_admin"}, cfg.AdminUserIDs)
}

func TestRedisFullAddr(t *testing.T) {
	cfg := &Config{RedisAddr: "cache", RedisPort: "6380"}
	assert.Equal(t, "cache:6380", cfg.RedisFullAddr())
}
