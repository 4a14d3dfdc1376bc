package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "this-is-a-test-secret-at-least-32-chars"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RENTHUB_JWT_SECRET", testSecret)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Messaging.DefaultPageSize)
	assert.Equal(t, 100, cfg.Messaging.MaxPageSize)
	assert.Empty(t, cfg.Messaging.SupportAddress)
	assert.Equal(t, int64(5*1024*1024), cfg.Listing.MaxImageSize)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.Type)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "renthub", cfg.JWT.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RENTHUB_JWT_SECRET", testSecret)
	t.Setenv("RENTHUB_SERVER_PORT", "9090")
	t.Setenv("RENTHUB_MESSAGING_SUPPORT_ADDRESS", "  support@renthub.local  ")
	t.Setenv("RENTHUB_CORS_ALLOWED_ORIGINS", "http://a.example.com, http://b.example.com")
	t.Setenv("RENTHUB_JWT_ACCESS_EXPIRY", "30m")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	// 客服地址去除首尾空白
	assert.Equal(t, "support@renthub.local", cfg.Messaging.SupportAddress)
	assert.Equal(t, []string{"http://a.example.com", "http://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessExpiry)
}

func TestLoad_JWTSecretValidation(t *testing.T) {
	t.Run("默认密钥被拒绝", func(t *testing.T) {
		t.Setenv("RENTHUB_JWT_SECRET", "change-me-in-production")

		cfg, err := Load()

		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "SECURITY ERROR"))
	})

	t.Run("过短的密钥被拒绝", func(t *testing.T) {
		t.Setenv("RENTHUB_JWT_SECRET", "too-short")

		cfg, err := Load()

		assert.Nil(t, cfg)
		assert.Error(t, err)
	})
}

func TestLoad_PageSizeValidation(t *testing.T) {
	t.Setenv("RENTHUB_JWT_SECRET", testSecret)
	t.Setenv("RENTHUB_MESSAGING_DEFAULT_PAGE_SIZE", "200")
	t.Setenv("RENTHUB_MESSAGING_MAX_PAGE_SIZE", "100")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a, b"))
	assert.Equal(t, []string{"a"}, parseList("a,,  ,"))
	assert.Empty(t, parseList(""))
}
