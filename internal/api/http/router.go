package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/queue-repair/internal/api/http/handlers"
	"github.com/spec-kit/queue-repair/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Dashboard      *handlers.DashboardHandler
	Maintenance    *handlers.MaintenanceHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. Reads are open; mutations pass through the
// auth middleware, which is a no-op when no secret is configured.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/dashboard", cfg.Dashboard.Get)

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/details", cfg.Tickets.TicketDetails)

	protect := cfg.AuthMiddleware.Handle
	tickets.Post("/", protect, cfg.Tickets.CreateTicket)
	tickets.Post("/:id/repaired", protect, cfg.Tickets.MarkRepaired)
	tickets.Post("/:id/cancel", protect, cfg.Tickets.CancelRepair)
	tickets.Delete("/:id", protect, cfg.Tickets.DeleteTicket)

	app.Post("/exports", protect, cfg.Maintenance.Export)
	app.Post("/maintenance/cleanup", protect, cfg.Maintenance.Cleanup)
}

// NewApp builds the fiber app with middlewares and routes.
func NewApp(appName string, deps AppDependencies, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		// Request strings outlive the request once stored as tickets or metric labels.
		Immutable: true,
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, deps.Timeout)
	RegisterRoutes(app, routes)
	return app
}
