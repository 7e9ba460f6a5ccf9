package kpi

import (
	"math"
	"time"

	"github.com/spec-kit/techdesk/internal/domain"
	"github.com/spec-kit/techdesk/internal/sla"
)

// Stats is the flat KPI bundle shown on the dashboard cards.
type Stats struct {
	TicketsCreated         int             `json:"ticketsCreated"`
	TicketsInProgress      int             `json:"ticketsInProgress"`
	TicketsResolvedOnTime  int             `json:"ticketsResolvedOnTime"`
	TicketsDeclined        int             `json:"ticketsDeclined"`
	GitlabTicketsSubmitted int             `json:"gitlabTicketsSubmitted"`
	AvgFirstResponseHours  float64         `json:"avgFirstResponseHours"`
	MedianFirstResponseHrs float64         `json:"medianFirstResponseHours"`
	AvgResolutionHours     float64         `json:"avgResolutionHours"`
	SLABreaches            BreachCounts    `json:"slaBreaches"`
	ProjectMetrics         ProjectMetrics  `json:"projectMetrics"`
	WorkflowMetrics        WorkflowMetrics `json:"workflowMetrics"`
}

// BreachCounts splits SLA breaches by milestone.
type BreachCounts struct {
	Response   int `json:"response"`
	Resolution int `json:"resolution"`
}

// ChartData bundles the series consumed by the dashboard charts.
type ChartData struct {
	StatusData       []StatusCount     `json:"statusData"`
	PriorityData     []PriorityCount   `json:"priorityData"`
	WorkflowTypeData []WorkflowCount   `json:"workflowTypeData"`
	TimeSeriesData   []TimeSeriesPoint `json:"timeSeriesData"`
}

// Report is the full assembled output for one KPI request.
type Report struct {
	Stats        Stats          `json:"stats"`
	AgentMetrics []AgentMetrics `json:"agentMetrics"`
	Charts       ChartData      `json:"charts"`
}

// TimeSeriesDays is the chart window in trailing calendar days.
const TimeSeriesDays = 30

// BuildStats reduces the filtered records into the flat stats bundle. All
// derived fields come from the evaluator and the aggregation helpers; no
// value is recomputed here.
func BuildStats(records []Record, now time.Time) Stats {
	stats := Stats{
		TicketsCreated:  len(records),
		ProjectMetrics:  ProjectBreakdown(records),
		WorkflowMetrics: PriorityBreakdown(records),
	}

	var responseTimes, resolutionTimes []float64
	for _, r := range records {
		switch r.Ticket.Status {
		case domain.TicketStatusAssigned:
			stats.TicketsInProgress++
		case domain.TicketStatusRejected:
			stats.TicketsDeclined++
		}
		if r.Ticket.GitlabLink != nil && *r.Ticket.GitlabLink != "" {
			stats.GitlabTicketsSubmitted++
		}

		eval := sla.Evaluate(r.Ticket, r.SLA, now)
		if eval.Responded {
			responseTimes = append(responseTimes, eval.ResponseTimeHours)
		}
		if eval.Resolved {
			resolutionTimes = append(resolutionTimes, eval.ResolutionTimeHours)
			if r.Ticket.Status == domain.TicketStatusCompleted && eval.ResolvedOnTime() {
				stats.TicketsResolvedOnTime++
			}
		}
		if eval.ResponseBreached {
			stats.SLABreaches.Response++
		}
		if eval.ResolutionBreached {
			stats.SLABreaches.Resolution++
		}
	}

	stats.AvgFirstResponseHours = mean(responseTimes)
	stats.MedianFirstResponseHrs = median(responseTimes)
	stats.AvgResolutionHours = mean(resolutionTimes)
	return stats
}

// BuildCharts assembles the chart series from the filtered records.
func BuildCharts(records []Record, now time.Time) ChartData {
	return ChartData{
		StatusData:       StatusHistogram(records),
		PriorityData:     PriorityHistogram(records),
		WorkflowTypeData: WorkflowHistogram(records),
		TimeSeriesData:   TimeSeries(records, now, TimeSeriesDays),
	}
}

// BuildReport assembles the complete report for one request at a single
// reference instant.
func BuildReport(records []Record, agents []domain.User, now time.Time) *Report {
	return &Report{
		Stats:        BuildStats(records, now),
		AgentMetrics: AgentBreakdown(records, agents, now),
		Charts:       BuildCharts(records, now),
	}
}

// Round1 rounds to one decimal for display. Aggregations keep raw values;
// only DTO mapping calls this.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
