package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Stores
	PostgresURL string
	RedisURL    string // optional; empty falls back to the in-process cache store

	// FIRST Tech Challenge Events API
	FTCBaseURL  string
	FTCUsername string
	FTCToken    string
	Season      int

	// Rankings aggregation
	RefreshSchedule  string // cron spec
	FetchConcurrency int
	RefreshTimeout   time.Duration

	// EPA tuning
	EPABlend        float64
	EPATrendWindow  int
	EPATrendEpsilon float64

	// Cache TTLs for endpoints without a dedicated rule
	CacheFreshTTL time.Duration
	CacheStaleTTL time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		RedisURL: getEnv("REDIS_URL", ""),

		FTCBaseURL: getEnv("FTC_API_BASE_URL", "https://ftc-api.firstinspires.org"),
		Season:     getEnvInt("FTC_SEASON", 2024),

		RefreshSchedule:  getEnv("RANKINGS_REFRESH_SCHEDULE", "0 */6 * * *"),
		FetchConcurrency: getEnvInt("RANKINGS_FETCH_CONCURRENCY", 5),
		RefreshTimeout:   getEnvDuration("RANKINGS_REFRESH_TIMEOUT", 20*time.Minute),

		EPABlend:        getEnvFloat("EPA_BLEND", 0.3),
		EPATrendWindow:  getEnvInt("EPA_TREND_WINDOW", 3),
		EPATrendEpsilon: getEnvFloat("EPA_TREND_EPSILON", 1.0),

		CacheFreshTTL: getEnvDuration("CACHE_FRESH_TTL", 5*time.Minute),
		CacheStaleTTL: getEnvDuration("CACHE_STALE_TTL", time.Hour),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.FTCUsername, err = getEnvRequired("FTC_API_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.FTCToken, err = getEnvRequired("FTC_API_TOKEN"); err != nil {
		return nil, err
	}

	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	if cfg.EPABlend <= 0 || cfg.EPABlend > 1 {
		return nil, fmt.Errorf("EPA_BLEND must be in (0,1], got %v", cfg.EPABlend)
	}
	if cfg.EPATrendWindow < 1 {
		return nil, fmt.Errorf("EPA_TREND_WINDOW must be >= 1, got %d", cfg.EPATrendWindow)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
