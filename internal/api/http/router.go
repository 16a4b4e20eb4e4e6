package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exam-access-service/internal/api/http/handlers"
	"github.com/spec-kit/exam-access-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Tokens    *handlers.TokensHandler
	Admin     *handlers.AdminHandler
	AdminGate *auth.AdminGate
	WebOrigin string
}

// RegisterRoutes wires HTTP routes. The token and exchange endpoints are
// bound to the single allowed web origin; the admin surface is gated by the
// shared password instead.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tokens := app.Group("/tokens", OriginGuard(cfg.WebOrigin))
	tokens.Post("/", cfg.Tokens.Issue)

	codes := app.Group("/access-codes", OriginGuard(cfg.WebOrigin))
	codes.Post("/", cfg.Tokens.Exchange)

	admin := app.Group("/admin")
	admin.Post("/login", cfg.Admin.Login)
	admin.Get("/tests", cfg.AdminGate.Handle, cfg.Admin.ListTests)
}
