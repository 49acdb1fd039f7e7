package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/hefeng-humidity/internal/api/http"
	"github.com/i474232898/hefeng-humidity/internal/config"
	"github.com/i474232898/hefeng-humidity/internal/logging"
	"github.com/i474232898/hefeng-humidity/internal/scheduler"
	"github.com/i474232898/hefeng-humidity/internal/store"
	"github.com/i474232898/hefeng-humidity/internal/views"
	"github.com/i474232898/hefeng-humidity/internal/weather"
	"github.com/i474232898/hefeng-humidity/internal/weather/providers"
)

const appName = "hefeng-humidity"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg, appName))

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"port", cfg.Port,
		"cacheDriver", cfg.CacheDriver,
		"cachePath", cfg.CachePath,
		"warmInterval", cfg.WarmInterval,
	)

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	// Persistent cache standing in for the browser's local storage.
	var backend store.Backend
	switch cfg.CacheDriver {
	case "memory":
		backend = store.NewMemoryStore()
	default:
		sqliteStore, err := store.NewSQLite(cfg.CachePath)
		if err != nil {
			return err
		}
		backend = sqliteStore
	}
	cache := store.NewCache(backend, cfg.CachePrefix)
	defer func() {
		if err := cache.Close(); err != nil {
			slog.Error("cache close", "error", err)
		}
	}()

	// Shared HTTP client and breaker for outbound HeFeng calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	breaker := providers.NewCircuitBreaker("hefeng")

	newService := func(ep providers.Endpoint) *weather.Service {
		return weather.NewService(cache, providers.NewHeFengProvider(httpClient, breaker, ep, cfg.MaxRetries))
	}

	sched := scheduler.New(
		weather.Query{City: cfg.City, Adm: cfg.Adm, DisplayName: cfg.DisplayName},
		cfg.WarmInterval,
		newService(providers.Endpoint{Host: cfg.Host, GeoKey: cfg.GeoKey, HistoryKey: cfg.HistoryKey}),
	)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(app, newService, httpapi.Defaults{
		Host:        cfg.Host,
		GeoKey:      cfg.GeoKey,
		HistoryKey:  cfg.HistoryKey,
		City:        cfg.City,
		Adm:         cfg.Adm,
		DisplayName: cfg.DisplayName,
	})

	go func() {
		slog.Info("listening", "addr", ":"+cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	return nil
}
