package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peer-review-dashboard/internal/bootstrap"
	"github.com/noah-isme/peer-review-dashboard/internal/config"
	"github.com/noah-isme/peer-review-dashboard/internal/handler"
	"github.com/noah-isme/peer-review-dashboard/internal/middleware"
	"github.com/noah-isme/peer-review-dashboard/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	container, err := bootstrap.New(cfg, logger, bootstrap.Options{})
	if err != nil {
		log.Fatalf("failed to wire dashboard sync: %v", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to release connections")
		}
	}()

	dashboardHandler := handler.NewDashboardHandler(container.Sync, container.Validator, logger)
	reportHandler := handler.NewReportHandler(container.Sync, logger)

	var jwtMiddleware fiber.Handler
	if cfg.JWTSecret != "" {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	} else {
		logger.Warn().Msg("jwt secret not configured, dashboard routes are unauthenticated")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		DashboardHandler: dashboardHandler,
		ReportHandler:    reportHandler,
		JWTMiddleware:    jwtMiddleware,
	})

	// Warm the snapshot so the first request has fresh data when the backend is up.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), cfg.BackendTimeout)
	if _, err := container.Sync.RefreshState(warmCtx); err != nil {
		logger.Warn().Err(err).Msg("initial refresh failed, serving snapshot")
	}
	cancelWarm()

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
