package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/http/handlers"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	APIKeys   *handlers.APIKeyHandler
	Dashboard *handlers.DashboardHandler
	Operators *handlers.OperatorHandler
	Gate      *auth.RequestGate
}

var roleNamespaces = []string{"/admin", "/manager", "/agent", "/user"}

// RegisterRoutes wires HTTP routes. Health probes are registered ahead of the
// gate so they never require a token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Use(cfg.Gate.Handle)

	app.Get("/", cfg.Dashboard.Landing)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/verify", cfg.Auth.Verify)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/signin", cfg.Auth.SignIn)

	app.Patch("/admin/operators/:id/active", cfg.Operators.SetActive)
	for _, prefix := range roleNamespaces {
		app.Get(prefix, cfg.Dashboard.Home)
		app.Get(prefix+"/*", cfg.Dashboard.Home)
	}

	api := app.Group("/api", cfg.Gate.Authenticate)
	keys := api.Group("/keys", auth.RequireRoles(domain.RoleAdmin, domain.RoleAgent))
	keys.Post("", cfg.APIKeys.Issue)
	keys.Get("", cfg.APIKeys.List)
}
