package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/barsan/reservation-service/internal/api/http/handlers"
	"github.com/barsan/reservation-service/internal/auth"
	"github.com/barsan/reservation-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Cafes          *handlers.CafesHandler
	Reservations   *handlers.ReservationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/staff/login", cfg.Auth.StaffLogin)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api := app.Group("/api")

	// Browsing and availability checks are public.
	api.Get("/cafes", cfg.Cafes.List)
	api.Get("/cafes/:id/tables", cfg.Cafes.ListTables)
	api.Get("/availability", cfg.Reservations.Availability)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Post("/reservations", auth.RequireGuest(), cfg.Reservations.Create)
	protected.Get("/reservations", auth.RequireGuest(), cfg.Reservations.List)
	protected.Get("/reservations/:id", cfg.Reservations.Get)
	protected.Post("/reservations/:id/cancel", cfg.Reservations.Cancel)

	staffOnly := auth.RequireStaffRole(domain.StaffRoleAdmin, domain.StaffRoleManager)
	protected.Post("/reservations/:id/complete", staffOnly, cfg.Reservations.Complete)
	protected.Post("/reservations/:id/no-show", staffOnly, cfg.Reservations.NoShow)

	protected.Post("/cafes", auth.RequireStaffRole(domain.StaffRoleAdmin), cfg.Cafes.Create)
	protected.Post("/cafes/:id/tables", staffOnly, cfg.Cafes.AddTable)
	protected.Patch("/tables/:id/active", staffOnly, cfg.Cafes.SetTableActive)
}
