package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk/internal/api/http/handlers"
	"github.com/spec-kit/techdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	KPIs           *handlers.KPIHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Ticket reads and writes require a
// session; board mutations and the KPI dashboard are agent only.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:shortID", cfg.Tickets.GetTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	board := tickets.Group("", auth.RequireAgent())
	board.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	board.Patch("/:id/assignee", cfg.Tickets.AssignTicket)
	board.Patch("/:id/gitlab", cfg.Tickets.SetGitlabLink)

	kpis := app.Group("/kpis", cfg.AuthMiddleware.Handle, auth.RequireAgent())
	kpis.Get("/report", cfg.KPIs.GetReport)
	kpis.Get("/stats", cfg.KPIs.GetStats)
	kpis.Get("/agents", cfg.KPIs.GetAgentMetrics)
	kpis.Get("/agents/export", cfg.KPIs.ExportAgentMetrics)
	kpis.Get("/charts", cfg.KPIs.GetCharts)
}
