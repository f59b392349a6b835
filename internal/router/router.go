package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peer-review-dashboard/internal/config"
	"github.com/noah-isme/peer-review-dashboard/internal/handler"
	"github.com/noah-isme/peer-review-dashboard/internal/middleware"
	"github.com/noah-isme/peer-review-dashboard/internal/observability"
)

const (
	mutationLimit  = 60
	mutationWindow = time.Minute
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DashboardHandler *handler.DashboardHandler
	ReportHandler    *handler.ReportHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Without a JWT middleware every caller is trusted, teacher routes included.
	jwtMiddleware := deps.JWTMiddleware
	var teacherGuards []fiber.Handler
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	} else {
		teacherGuards = append(teacherGuards, middleware.RequireRole("teacher", "admin"))
	}

	dashboard := api.Group("/dashboard", jwtMiddleware)
	limiter := middleware.RateLimit("dashboard_mutations", mutationLimit, mutationWindow)

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(dashboard, limiter)
		deps.DashboardHandler.RegisterTeacher(dashboard, append(teacherGuards, limiter)...)
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(dashboard)
		deps.ReportHandler.RegisterTeacher(dashboard, teacherGuards...)
	}
}
