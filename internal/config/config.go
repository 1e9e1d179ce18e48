package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var defaultOrigins = []string{
	"https://prep-dew.vercel.app",
	"http://localhost:5173",
	"http://localhost:3000",
}

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	AppEnv       string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string

	LogLevel  string
	LogFormat string

	MaintenanceSchedule string
	EventRetention      time.Duration
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	retention, err := time.ParseDuration(getEnv("EVENT_RETENTION", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION: %w", err)
	}

	cfg := &Config{
		ServerPort:          port,
		DatabasePath:        getEnv("DATABASE_PATH", "./prep.db"),
		AppEnv:              getEnv("APP_ENV", "development"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTTTL:              ttl,
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", ""), defaultOrigins),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@every 1h"),
		EventRetention:      retention,
	}

	if _, err := cron.ParseStandard(cfg.MaintenanceSchedule); err != nil {
		return nil, fmt.Errorf("invalid MAINTENANCE_SCHEDULE: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(raw string, fallback []string) []string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
