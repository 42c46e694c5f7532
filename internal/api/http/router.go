package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-archive/internal/api/http/handlers"
	"github.com/spec-kit/recipe-archive/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Recipes       *handlers.RecipesHandler
	Metrics       fiber.Handler
	Authenticator *auth.Authenticator
	Policy        *auth.Policy
}

// RegisterRoutes installs the authentication pipeline and wires HTTP routes.
// Every request passes the authenticator and then the policy before reaching
// a handler.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Authenticator.Handle)
	app.Use(cfg.Policy.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	app.Post("/auth/login", cfg.Auth.Login)

	users := app.Group("/users")
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Register)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)

	recipes := app.Group("/recipes")
	recipes.Get("", cfg.Recipes.List)
	recipes.Post("", cfg.Recipes.Create)
	recipes.Get("/user/:userId", cfg.Recipes.ListByUser)
	recipes.Get("/:id", cfg.Recipes.Get)
	recipes.Put("/:id", cfg.Recipes.Update)
	recipes.Delete("/:id", cfg.Recipes.Delete)
}
