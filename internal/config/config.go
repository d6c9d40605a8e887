// Package config provides environment configuration for the analytics console.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Analytics backend
	AnalyticsURL   string
	RequestTimeout time.Duration
	StreamTimeout  time.Duration

	// JWT settings for outbound request auth (empty secret disables auth)
	JWTSecret     string
	JWTExpiration time.Duration
	JWTSubject    string

	// NATS settings for the optional turn publisher (empty URL disables it)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Bookmarks
	BookmarkDBPath string

	// Health polling
	HealthInterval time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Analytics backend
		AnalyticsURL:   getEnv("ANALYTICS_URL", "http://localhost:8001"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 15*time.Second),
		StreamTimeout:  getDurationEnv("STREAM_TIMEOUT", 0),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),
		JWTSubject:    getEnv("JWT_SUBJECT", "analytics-console"),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Bookmarks
		BookmarkDBPath: getEnv("BOOKMARK_DB_PATH", "bookmarks.db"),

		// Health polling
		HealthInterval: getDurationEnv("HEALTH_INTERVAL", 10*time.Second),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
