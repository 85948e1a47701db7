package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scriptsure-ai/grading-api/internal/config"
	"github.com/scriptsure-ai/grading-api/internal/handler"
	"github.com/scriptsure-ai/grading-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	GradingHandler  *handler.GradingHandler
	InsightsHandler *handler.InsightsHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(api.Group("/grading", jwtMiddleware))
	}

	if deps.InsightsHandler != nil {
		deps.InsightsHandler.Register(api.Group("/insights", jwtMiddleware))
	}
}
