package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort         int
	DatabasePath       string
	JWTSecret          string
	CORSOrigin         string
	AppEnv             string // "development" or "production"
	EventRetentionDays int
	EventPruneSpec     string // standard cron expression
	StatsInterval      int    // seconds between stat snapshots
}

// Load loads configuration from environment variables or sets defaults.
// JWT_SECRET has no default: refusing to start beats signing sessions
// with an empty key.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	retention, err := strconv.Atoi(getEnv("EVENT_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION_DAYS: %w", err)
	}

	statsInterval, err := strconv.Atoi(getEnv("STATS_INTERVAL_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL_SECONDS: %w", err)
	}

	return &Config{
		ServerPort:         port,
		DatabasePath:       getEnv("DATABASE_PATH", "./users.db"),
		JWTSecret:          secret,
		CORSOrigin:         getEnv("CORS_ORIGIN", "http://localhost:5173"),
		AppEnv:             getEnv("APP_ENV", "development"),
		EventRetentionDays: retention,
		EventPruneSpec:     getEnv("EVENT_PRUNE_SPEC", "0 3 * * *"),
		StatsInterval:      statsInterval,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
