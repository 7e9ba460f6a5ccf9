package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk/internal/api/dto"
	"github.com/spec-kit/techdesk/internal/kpi"
	"github.com/spec-kit/techdesk/internal/service"
	"github.com/spec-kit/techdesk/pkg/util"
)

// KPIHandler serves the dashboard report endpoints. Every request resolves
// its criteria against a single reference instant captured on entry, so the
// stats, charts, and agent sections of one response agree with each other.
type KPIHandler struct {
	reports *service.ReportService
	now     func() time.Time
}

// NewKPIHandler constructs handler.
func NewKPIHandler(reportService *service.ReportService, now func() time.Time) *KPIHandler {
	if now == nil {
		now = time.Now
	}
	return &KPIHandler{reports: reportService, now: now}
}

// GetReport GET /kpis/report.
func (h *KPIHandler) GetReport(c *fiber.Ctx) error {
	criteria := parseCriteria(c)
	report, err := h.reports.BuildReport(c.Context(), criteria, h.now())
	if err != nil {
		return err
	}
	agents := make([]dto.AgentMetricsResponse, 0, len(report.AgentMetrics))
	for _, m := range report.AgentMetrics {
		agents = append(agents, dto.NewAgentMetricsResponse(m))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"stats":        dto.NewKPIStatsResponse(report.Stats),
		"agentMetrics": agents,
		"charts":       report.Charts,
	}})
}

// GetStats GET /kpis/stats.
func (h *KPIHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.reports.Stats(c.Context(), parseCriteria(c), h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewKPIStatsResponse(stats)})
}

// GetAgentMetrics GET /kpis/agents.
func (h *KPIHandler) GetAgentMetrics(c *fiber.Ctx) error {
	metrics, err := h.reports.AgentMetrics(c.Context(), parseCriteria(c), h.now())
	if err != nil {
		return err
	}
	items := make([]dto.AgentMetricsResponse, 0, len(metrics))
	for _, m := range metrics {
		items = append(items, dto.NewAgentMetricsResponse(m))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCharts GET /kpis/charts.
func (h *KPIHandler) GetCharts(c *fiber.Ctx) error {
	charts, err := h.reports.Charts(c.Context(), parseCriteria(c), h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": charts})
}

// ExportAgentMetrics GET /kpis/agents/export. Streams the agent breakdown
// as a CSV attachment.
func (h *KPIHandler) ExportAgentMetrics(c *fiber.Ctx) error {
	now := h.now()
	metrics, err := h.reports.AgentMetrics(c.Context(), parseCriteria(c), now)
	if err != nil {
		return err
	}

	headers := []string{"Agent", "Assigned", "Resolved", "Avg Response (h)", "Avg Resolution (h)", "SLA Compliance (%)"}
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			m.AgentName,
			fmt.Sprintf("%d", m.TicketsAssigned),
			fmt.Sprintf("%d", m.TicketsResolved),
			fmt.Sprintf("%.1f", m.AvgResponseHours),
			fmt.Sprintf("%.1f", m.AvgResolutionHours),
			fmt.Sprintf("%.1f", m.SLACompliancePercent),
		})
	}

	filename := fmt.Sprintf("agent-metrics-%s.csv", now.Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.SendString(util.ExportCSV(headers, rows))
}

func parseCriteria(c *fiber.Ctx) kpi.Criteria {
	criteria := kpi.Criteria{
		DateRange:    c.Query("date_range"),
		AgentID:      c.Query("agent_id"),
		Priority:     c.Query("priority"),
		WorkflowType: c.Query("workflow_type"),
		ProjectType:  c.Query("project_type"),
		Account:      c.Query("account"),
		Category:     c.Query("category"),
		Search:       c.Query("search"),
	}
	if from := parseTime(c.Query("start_date")); from != nil {
		criteria.StartDate = from
	}
	if to := parseTime(c.Query("end_date")); to != nil {
		criteria.EndDate = to
	}
	return criteria
}
