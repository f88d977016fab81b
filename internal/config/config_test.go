package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "root", "DB_HOST": "localhost",
		"DB_PORT": "3306", "DB_NAME": "mealhub", "JWT_SECRET": "secret",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("SLOT_GATE_TTL", "")
	t.Setenv("NOTIFY_TIMEOUT", "")

	cfg := Load()
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, 15*time.Second, cfg.GateTTL)
	assert.Equal(t, "lock:resv", cfg.GatePrefix)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.False(t, cfg.DBMigrate)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	t.Setenv("PUBLIC_BASE_URL", "https://mealhub.example/")
	t.Setenv("SLOT_GATE_TTL", "3s")
	t.Setenv("DB_MIGRATE", "yes")
	t.Setenv("RABBITMQ_URL", "amqp://mq/")

	cfg := Load()
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.Equal(t, "https://mealhub.example", cfg.PublicBaseURL)
	assert.Equal(t, 3*time.Second, cfg.GateTTL)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, "amqp://mq/", cfg.AMQPURL)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.Equal(t, 5*time.Second, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.True(t, cfg.TLS)
}
