package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk-intake/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-intake/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Intake   *handlers.IntakeHandler
	Tickets  *handlers.TicketsHandler
	Accounts *handlers.AccountsHandler
	Verifier *auth.Verifier
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/intake/email", auth.RequireIntakeSecret(cfg.Verifier), cfg.Intake.Email)

	app.Post("/auth/login", cfg.Accounts.Login)

	session := auth.NewSessionMiddleware(cfg.Verifier)

	app.Post("/auth/password", session.Handle, cfg.Accounts.ChangeOwnPassword)

	admin := app.Group("/admin", session.Handle)
	admin.Post("/users/:id/password", cfg.Accounts.ResetPassword)

	tickets := app.Group("/tickets", session.Handle)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/owner", cfg.Tickets.ChangeOwner)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
}
