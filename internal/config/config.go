package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"naval-combat/internal/constants"
)

type Config struct {
	DBPath          string
	ServerPort      string
	LogLevel        string
	RedisURL        string
	JWTSecret       string
	RankingCacheTTL time.Duration
	HotStoreTTL     time.Duration
	SweepInterval   time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:     getEnv("DB_PATH", "naval.db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:  getEnv("JWT_SECRET", ""),
	}

	var err error
	if cfg.RankingCacheTTL, err = getDuration("RANKING_CACHE_TTL", constants.RankingCacheTTL); err != nil {
		return nil, err
	}
	if cfg.HotStoreTTL, err = getDuration("HOT_STORE_TTL", constants.HotStoreTTL); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", constants.SweepInterval); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("ranking_cache_ttl", cfg.RankingCacheTTL).
		Dur("hot_store_ttl", cfg.HotStoreTTL).
		Dur("sweep_interval", cfg.SweepInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
