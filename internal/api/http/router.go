package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-console/internal/api/http/handlers"
	"github.com/spec-kit/user-console/internal/domain"
)

// Navigable destinations.
const (
	loginPath        = "/login"
	registerPath     = "/register"
	unauthorizedPath = "/unauthorized"
	dashboardPath    = "/dashboard"
	profilePath      = "/profile"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Pages   *handlers.PagesHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UsersHandler
	Session fiber.Handler
}

// RegisterRoutes wires the console route surface.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/metrics", cfg.Health.Metrics)

	// Everything below rides on a resolved browser session.
	app.Use(cfg.Session)

	app.Get("/", cfg.Pages.Root)
	app.Get(loginPath, cfg.Pages.Login)
	app.Get(registerPath, cfg.Pages.Register)
	app.Get(unauthorizedPath, cfg.Pages.Unauthorized)

	app.Post(loginPath, cfg.Auth.Login)
	app.Post(registerPath, cfg.Auth.Register)
	app.Post("/logout", cfg.Auth.Logout)

	app.Get(dashboardPath, Require(domain.RoleAdmin), cfg.Pages.Dashboard)
	app.Get(profilePath, Require(""), cfg.Pages.Profile)
	app.Post(profilePath, Require(""), cfg.Users.UpdateProfile)
	app.Post(profilePath+"/password", Require(""), cfg.Users.ChangePassword)
	app.Post("/users/:id/delete", Require(domain.RoleAdmin), cfg.Users.Delete)

	app.Use(cfg.Pages.NotFound)
}
