package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gocart/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Valores numéricos vazios caem no padrão.
	t.Setenv("HTTP_TIMEOUT_SEC", "")
	t.Setenv("CACHE_TTL_SEC", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PORT", "8080")
	t.Setenv("CALLER_ID", config.DefaultCallerID)

	cfg := config.LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.DefaultCallerID, cfg.CallerID)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("CATALOG_BASE_URL", "http://catalog.local/api/v1")
	t.Setenv("CART_BASE_URL", "http://cart.local/api/v1")
	t.Setenv("CALLER_ID", "6f1c1f5e-5d3a-4c52-9a57-1b9d6c1a2b3c")
	t.Setenv("HTTP_TIMEOUT_SEC", "3")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "7")

	cfg := config.LoadConfig()

	assert.Equal(t, "http://catalog.local/api/v1", cfg.CatalogBaseURL)
	assert.Equal(t, "http://cart.local/api/v1", cfg.CartBaseURL)
	assert.Equal(t, "6f1c1f5e-5d3a-4c52-9a57-1b9d6c1a2b3c", cfg.CallerID)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 7, cfg.RateLimitMaxRequests)
}

func TestLoadConfig_InvalidNumberFallsBackToDefault(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SEC", "dez")
	t.Setenv("CALLER_ID", config.DefaultCallerID)

	cfg := config.LoadConfig()

	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}
