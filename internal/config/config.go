package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // Empty = in-memory journal (state is lost on restart)
	TablePrefix string
	CORSOrigins string
	// Authentication: JWKSURL takes precedence; JWTSecret enables HS256 tokens for dev/test
	JWKSURL   string
	JWTSecret string
	// Journal
	JournalFlushInterval time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          env,
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		TablePrefix:          getTablePrefix(env),
		CORSOrigins:          getEnv("CORS_ORIGINS", "http://localhost:3000"),
		JWKSURL:              getEnv("JWKS_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JournalFlushInterval: getDuration("JOURNAL_FLUSH_INTERVAL", 500*time.Millisecond),
		LogDir:               getEnv("LOG_DIR", ""),
		LogMaxFiles:          getInt("LOG_MAX_FILES", 10),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}
