package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ANALYTICS_URL", "REQUEST_TIMEOUT", "STREAM_TIMEOUT", "JWT_SECRET",
		"JWT_SUBJECT", "NATS_URL", "BOOKMARK_DB_PATH", "HEALTH_INTERVAL",
		"LOG_LEVEL", "TRACING_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "http://localhost:8001", cfg.AnalyticsURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Duration(0), cfg.StreamTimeout)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "analytics-console", cfg.JWTSubject)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "bookmarks.db", cfg.BookmarkDBPath)
	assert.Equal(t, 10*time.Second, cfg.HealthInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ANALYTICS_URL", "https://analytics.internal:9000")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HEALTH_INTERVAL", "1m")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "https://analytics.internal:9000", cfg.AnalyticsURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, time.Minute, cfg.HealthInterval)
	assert.True(t, cfg.TracingEnabled)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("TRACING_ENABLED", "not-a-bool")

	cfg := Load()

	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.TracingEnabled)
}
