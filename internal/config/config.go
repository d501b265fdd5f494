package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	ServerPort     int

	// RedisURL empty means the in-memory snapshot cache.
	RedisURL string
	CacheTTL time.Duration

	SwissAwardByeWin bool
	SwissAutoAdvance bool

	CORSAllowedOrigins []string
}

// Load reads the environment, after a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseDriver: getenv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getenv("DATABASE_URL", "bracket_engine.db?_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000&_foreign_keys=1"),
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be sqlite3 or postgres, got %q", cfg.DatabaseDriver)
	}

	port, err := strconv.Atoi(getenv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	cfg.CacheTTL, err = time.ParseDuration(getenv("CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL environment variable: %w", err)
	}

	cfg.SwissAwardByeWin, err = strconv.ParseBool(getenv("SWISS_AWARD_BYE_WIN", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWISS_AWARD_BYE_WIN environment variable: %w", err)
	}
	cfg.SwissAutoAdvance, err = strconv.ParseBool(getenv("SWISS_AUTO_ADVANCE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWISS_AUTO_ADVANCE environment variable: %w", err)
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
