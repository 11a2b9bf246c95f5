package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/sunwatch/suntimes-service/internal/api/http"
	"github.com/sunwatch/suntimes-service/internal/config"
	"github.com/sunwatch/suntimes-service/internal/geocoding"
	"github.com/sunwatch/suntimes-service/internal/scheduler"
	"github.com/sunwatch/suntimes-service/internal/store"
	"github.com/sunwatch/suntimes-service/internal/suntimes"
	"github.com/sunwatch/suntimes-service/internal/suntimes/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider and resolver calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Durable record store; the unique (location, date) index lives here.
	recordStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open record store: %v", err)
	}

	// Coordinate resolver: Google when a key is configured, Nominatim
	// otherwise, both behind the 30-day cache.
	var resolver suntimes.Resolver
	if cfg.GeocoderAPIKey != "" {
		resolver = geocoding.NewGoogleResolver(cfg.GeocoderAPIKey)
	} else {
		resolver = geocoding.NewNominatimResolver(httpClient, cfg.NominatimBaseURL)
	}
	resolver = geocoding.NewCachedResolver(resolver, cfg.GeocoderCacheTTL)

	// Sun-time provider with circuit breaker.
	var providerOpts []providers.Option
	if cfg.SunTimesBaseURL != "" {
		providerOpts = append(providerOpts, providers.WithBaseURL(cfg.SunTimesBaseURL))
	}
	provider := providers.NewSunriseSunsetProvider(httpClient, providerOpts...)

	// Core service orchestrating resolver, provider and store.
	service := suntimes.NewService(recordStore, resolver, provider)

	// Scheduler that warms configured locations ahead of time.
	sched := scheduler.New(cfg.PrefetchLocations, cfg.PrefetchInterval, cfg.PrefetchDays, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "suntimes-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "suntimes-service",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Endpoint index.
	app.Get("/api", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version": "v1",
			"endpoints": fiber.Map{
				"health": "/health",
				"sun_times": fiber.Map{
					"index":   "GET /api/v1/sun_times",
					"create":  "POST /api/v1/sun_times",
					"show":    "GET /api/v1/sun_times/:id",
					"destroy": "DELETE /api/v1/sun_times/:id",
				},
			},
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
