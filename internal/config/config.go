package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration sourced from the environment.
type Config struct {
	DatabaseURL      string
	Port             string
	LogLevel         string
	DistanceProvider string
	ORSAPIKey        string
	DistanceCache    string
	SqliteCachePath  string
	RedisAddr        string
	RedisCacheTTL    time.Duration
	PersistTimeout   time.Duration
	SeedPath         string
}

// LoadDotEnv loads a .env file if present. It reports whether one was found.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
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
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Port:             Get("PORT", "8080"),
		LogLevel:         Get("LOG_LEVEL", "info"),
		DistanceProvider: strings.ToLower(Get("DISTANCE_PROVIDER", "placeholder")),
		ORSAPIKey:        os.Getenv("ORS_API_KEY"),
		DistanceCache:    strings.ToLower(Get("DISTANCE_CACHE", "postgres")),
		SqliteCachePath:  Get("SQLITE_CACHE_PATH", "data/cache.db"),
		RedisAddr:        Get("REDIS_ADDR", "localhost:6379"),
		SeedPath:         Get("SEED_PATH", "data/seeds/demo.json"),
	}

	var err error
	if cfg.RedisCacheTTL, err = getDuration("REDIS_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PersistTimeout, err = getDuration("PERSIST_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, errors.New("config: DATABASE_URL is required")
	}

	switch cfg.DistanceProvider {
	case "placeholder":
	case "ors":
		if strings.TrimSpace(cfg.ORSAPIKey) == "" {
			return Config{}, errors.New("config: ORS_API_KEY is required when DISTANCE_PROVIDER=ors")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown DISTANCE_PROVIDER %q", cfg.DistanceProvider)
	}

	switch cfg.DistanceCache {
	case "none", "postgres", "sqlite", "redis":
	default:
		return Config{}, fmt.Errorf("config: unknown DISTANCE_CACHE %q", cfg.DistanceCache)
	}

	return cfg, nil
}
