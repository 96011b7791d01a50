package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/env-risk-correlator/internal/api/http"
	"github.com/i474232898/env-risk-correlator/internal/app"
	"github.com/i474232898/env-risk-correlator/internal/config"
	"github.com/i474232898/env-risk-correlator/internal/observability"
	"github.com/i474232898/env-risk-correlator/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	a, err := app.New(cfg, lg, metrics)
	if err != nil {
		lg.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Scheduler that periodically ingests tracked regions.
	sched := scheduler.New(cfg.TrackRegions, cfg.FetchInterval, a.Air, lg)
	if err := sched.Start(); err != nil {
		lg.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Basic app configuration
	server := fiber.New(fiber.Config{
		AppName:               "env-risk-correlator",
		DisableStartupMessage: true,
		// Ingestion may wait on both providers in turn.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.PrimaryTimeout + cfg.FallbackTimeout + 5*time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	server.Use(logger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "env-risk-correlator",
		})
	})
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(server, httpapi.Services{
		Air:        a.Air,
		Scorer:     a.Scorer,
		Vitals:     a.Vitals,
		Correlator: a.Correlator,
	})

	go func() {
		lg.Info("listening", "port", cfg.Port)
		if err := server.Listen(":" + cfg.Port); err != nil {
			lg.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", "error", err)
	}
}
