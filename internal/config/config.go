package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/hefeng-humidity/internal/store"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// HTTPTimeout bounds every outbound HeFeng request.
	HTTPTimeout time.Duration
	MaxRetries  int

	// Defaults for the page parameters h, k1, k2, c, u and n.
	Host        string
	GeoKey      string
	HistoryKey  string
	City        string
	Adm         string
	DisplayName string

	CacheDriver string // "sqlite" or "memory"
	CachePath   string
	CachePrefix string

	// WarmInterval controls how often the configured city is pre-fetched (0 = disabled).
	WarmInterval time.Duration
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8080")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout
	cfg.MaxRetries = getenvInt("HEFENG_MAX_RETRIES", 0)

	cfg.Host = os.Getenv("HEFENG_HOST")
	cfg.GeoKey = os.Getenv("HEFENG_GEO_KEY")
	cfg.HistoryKey = os.Getenv("HEFENG_HISTORY_KEY")
	cfg.City = os.Getenv("HEFENG_CITY")
	cfg.Adm = os.Getenv("HEFENG_ADM")
	cfg.DisplayName = os.Getenv("HEFENG_CITY_NAME")

	cfg.CacheDriver = getenvDefault("CACHE_DRIVER", "sqlite")
	switch cfg.CacheDriver {
	case "sqlite", "memory":
	default:
		return nil, fmt.Errorf("invalid CACHE_DRIVER %q (allowed: sqlite, memory)", cfg.CacheDriver)
	}
	cfg.CachePath = getenvDefault("CACHE_PATH", "data/cache.db")
	cfg.CachePrefix = getenvDefault("CACHE_PREFIX", store.DefaultPrefix)

	warm, err := time.ParseDuration(getenvDefault("WARM_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WARM_INTERVAL: %w", err)
	}
	cfg.WarmInterval = warm

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
