package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tripflow/console/internal/api/http/handlers"
	"github.com/tripflow/console/internal/auth"
	"github.com/tripflow/console/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Session           *handlers.SessionHandler
	Console           *handlers.ConsoleHandler
	SessionMiddleware *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	withSession := cfg.SessionMiddleware.Handle

	app.Get(auth.SignInPath, withSession, cfg.Session.SignInView)

	authGroup := app.Group("/auth", withSession)
	authGroup.Post("/signin", cfg.Session.SignIn)
	authGroup.Post("/signout", cfg.Session.SignOut)
	authGroup.Get("/session", cfg.Session.Session)

	console := app.Group(handlers.ConsoleHomePath, withSession, auth.RequireAuthenticated())
	console.Get("/", cfg.Console.Home)
	console.Get("/admin", auth.RequireRole(domain.RoleAdmin), cfg.Console.RoleView(domain.RoleAdmin))
	console.Get("/vendor", auth.RequireRole(domain.RoleVendor), cfg.Console.RoleView(domain.RoleVendor))
	console.Get("/driver", auth.RequireRole(domain.RoleDriver), cfg.Console.RoleView(domain.RoleDriver))
	console.Get("/rider", auth.RequireRole(domain.RoleRider), cfg.Console.RoleView(domain.RoleRider))
}
