package kpi

import (
	"sort"
	"time"

	"github.com/spec-kit/techdesk/internal/domain"
	"github.com/spec-kit/techdesk/internal/sla"
)

// Record pairs a ticket with its SLA row for aggregation. SLA may be nil
// when the store has no row for the ticket.
type Record struct {
	Ticket domain.Ticket
	SLA    *domain.SLARecord
}

// StatusCount is one status histogram entry.
type StatusCount struct {
	Status domain.TicketStatus `json:"status"`
	Count  int                 `json:"count"`
}

// PriorityCount is one priority histogram entry.
type PriorityCount struct {
	Priority domain.TicketPriority `json:"priority"`
	Count    int                   `json:"count"`
}

// WorkflowCount is one workflow-type histogram entry.
type WorkflowCount struct {
	WorkflowType domain.WorkflowType `json:"workflowType"`
	Count        int                 `json:"count"`
}

// TimeSeriesPoint counts tickets created and resolved on one calendar day.
type TimeSeriesPoint struct {
	Date     string `json:"date"`
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}

// AgentMetrics aggregates SLA performance for one agent.
type AgentMetrics struct {
	AgentID              string  `json:"agentId"`
	AgentName            string  `json:"agentName"`
	TicketsAssigned      int     `json:"ticketsAssigned"`
	TicketsResolved      int     `json:"ticketsResolved"`
	AvgResponseHours     float64 `json:"avgResponseHours"`
	AvgResolutionHours   float64 `json:"avgResolutionHours"`
	SLACompliancePercent float64 `json:"slaCompliancePercent"`
}

// ProjectBucket aggregates one project workflow type.
type ProjectBucket struct {
	Total             int     `json:"total"`
	OnTime            int     `json:"onTime"`
	AvgResolutionDays float64 `json:"avgDays"`
}

// ProjectMetrics covers the five fixed-timeline workflow types.
type ProjectMetrics struct {
	ProposalBuilds    ProjectBucket `json:"proposalBuilds"`
	WhiteLabelBuilds  ProjectBucket `json:"whiteLabelBuilds"`
	DataMigrations    ProjectBucket `json:"dataMigrations"`
	EnterpriseImports ProjectBucket `json:"enterpriseImports"`
	ReportRequests    ProjectBucket `json:"reportRequests"`
}

// WorkflowBucket aggregates one priority tier among Workflow-classified
// tickets. AvgResolutionHours is the raw value; presentation converts to
// days for the tiers with day-granularity deadlines.
type WorkflowBucket struct {
	Total              int     `json:"total"`
	OnTime             int     `json:"onTime"`
	AvgResolutionHours float64 `json:"avgResolutionHours"`
}

// WorkflowMetrics covers every priority tier restricted to Workflow tickets.
type WorkflowMetrics struct {
	Low    WorkflowBucket `json:"low"`
	Medium WorkflowBucket `json:"medium"`
	High   WorkflowBucket `json:"high"`
	Urgent WorkflowBucket `json:"urgent"`
	Defcon WorkflowBucket `json:"defcon"`
}

// StatusHistogram counts tickets per status in discovery order.
func StatusHistogram(records []Record) []StatusCount {
	index := map[domain.TicketStatus]int{}
	var out []StatusCount
	for _, r := range records {
		if i, ok := index[r.Ticket.Status]; ok {
			out[i].Count++
			continue
		}
		index[r.Ticket.Status] = len(out)
		out = append(out, StatusCount{Status: r.Ticket.Status, Count: 1})
	}
	return out
}

// PriorityHistogram counts tickets per priority in discovery order.
func PriorityHistogram(records []Record) []PriorityCount {
	index := map[domain.TicketPriority]int{}
	var out []PriorityCount
	for _, r := range records {
		if i, ok := index[r.Ticket.Priority]; ok {
			out[i].Count++
			continue
		}
		index[r.Ticket.Priority] = len(out)
		out = append(out, PriorityCount{Priority: r.Ticket.Priority, Count: 1})
	}
	return out
}

// WorkflowHistogram counts tickets per workflow type in discovery order.
func WorkflowHistogram(records []Record) []WorkflowCount {
	index := map[domain.WorkflowType]int{}
	var out []WorkflowCount
	for _, r := range records {
		if i, ok := index[r.Ticket.WorkflowType]; ok {
			out[i].Count++
			continue
		}
		index[r.Ticket.WorkflowType] = len(out)
		out = append(out, WorkflowCount{WorkflowType: r.Ticket.WorkflowType, Count: 1})
	}
	return out
}

// TimeSeries returns created/resolved counts for each of the trailing days
// calendar days, oldest first, with an entry for every day even when empty.
// Resolved means the ticket sits in Completed with a resolvedAt inside the day.
func TimeSeries(records []Record, now time.Time, days int) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStart := startOfDay(now.AddDate(0, 0, -i))
		dayEnd := dayStart.AddDate(0, 0, 1)
		point := TimeSeriesPoint{Date: dayStart.Format("2006-01-02")}
		for _, r := range records {
			if inDay(r.Ticket.CreatedAt, dayStart, dayEnd) {
				point.Created++
			}
			if r.Ticket.Status == domain.TicketStatusCompleted &&
				r.SLA.Resolved() &&
				inDay(*r.SLA.ResolvedAt, dayStart, dayEnd) {
				point.Resolved++
			}
		}
		points = append(points, point)
	}
	return points
}

func inDay(t, dayStart, dayEnd time.Time) bool {
	return !t.Before(dayStart) && t.Before(dayEnd)
}

// AgentBreakdown computes per-agent metrics over the filtered records for
// every supplied agent, sorted descending by assigned count. Agents without
// any SLA checks report 100% compliance and zero averages.
func AgentBreakdown(records []Record, agents []domain.User, now time.Time) []AgentMetrics {
	metrics := make([]AgentMetrics, 0, len(agents))
	for _, agent := range agents {
		m := AgentMetrics{AgentID: agent.ID, AgentName: agent.Name}

		var responseTimes, resolutionTimes []float64
		withinResponse, withinResolution := 0, 0
		for _, r := range records {
			if r.Ticket.AssigneeID == nil || *r.Ticket.AssigneeID != agent.ID {
				continue
			}
			m.TicketsAssigned++
			eval := sla.Evaluate(r.Ticket, r.SLA, now)
			if eval.Responded {
				responseTimes = append(responseTimes, eval.ResponseTimeHours)
				if eval.ResponseTimeHours <= sla.ResponseThresholdHours {
					withinResponse++
				}
			}
			if r.Ticket.Status == domain.TicketStatusCompleted && eval.Resolved {
				m.TicketsResolved++
				resolutionTimes = append(resolutionTimes, eval.ResolutionTimeHours)
				if eval.ResolutionTimeHours <= eval.ExpectedCompletionHours {
					withinResolution++
				}
			}
		}

		m.AvgResponseHours = mean(responseTimes)
		m.AvgResolutionHours = mean(resolutionTimes)
		totalChecks := len(responseTimes) + len(resolutionTimes)
		if totalChecks == 0 {
			m.SLACompliancePercent = 100
		} else {
			m.SLACompliancePercent = float64(withinResponse+withinResolution) / float64(totalChecks) * 100
		}
		metrics = append(metrics, m)
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].TicketsAssigned > metrics[j].TicketsAssigned
	})
	return metrics
}

// ProjectBreakdown aggregates the five project workflow types.
func ProjectBreakdown(records []Record) ProjectMetrics {
	return ProjectMetrics{
		ProposalBuilds:    projectBucket(records, domain.WorkflowProposalBuild),
		WhiteLabelBuilds:  projectBucket(records, domain.WorkflowWhiteLabel),
		DataMigrations:    projectBucket(records, domain.WorkflowDataMigration),
		EnterpriseImports: projectBucket(records, domain.WorkflowEnterpriseImport),
		ReportRequests:    projectBucket(records, domain.WorkflowReportRequest),
	}
}

func projectBucket(records []Record, workflowType domain.WorkflowType) ProjectBucket {
	expectedDays := sla.ExpectedCompletionHours("", workflowType) / 24
	bucket := ProjectBucket{}
	var resolutionDays []float64
	for _, r := range records {
		if r.Ticket.WorkflowType != workflowType {
			continue
		}
		bucket.Total++
		if r.Ticket.Status != domain.TicketStatusCompleted || !r.SLA.Resolved() {
			continue
		}
		days := r.SLA.ResolvedAt.Sub(r.Ticket.CreatedAt).Hours() / 24
		resolutionDays = append(resolutionDays, days)
		if days <= expectedDays {
			bucket.OnTime++
		}
	}
	bucket.AvgResolutionDays = mean(resolutionDays)
	return bucket
}

// PriorityBreakdown aggregates each priority tier among tickets classified
// as Workflow, using the priority-based deadline (no workflow override can
// apply inside this slice except for the types the classification keeps
// in Workflow, matching observed behavior).
func PriorityBreakdown(records []Record) WorkflowMetrics {
	return WorkflowMetrics{
		Low:    priorityBucket(records, domain.TicketPriorityLow),
		Medium: priorityBucket(records, domain.TicketPriorityMedium),
		High:   priorityBucket(records, domain.TicketPriorityHigh),
		Urgent: priorityBucket(records, domain.TicketPriorityUrgent),
		Defcon: priorityBucket(records, domain.TicketPriorityDefcon),
	}
}

func priorityBucket(records []Record, priority domain.TicketPriority) WorkflowBucket {
	expectedHours := sla.ExpectedCompletionHours(priority, "")
	bucket := WorkflowBucket{}
	var resolutionHours []float64
	for _, r := range records {
		if r.Ticket.Priority != priority || r.Ticket.ProjectType != domain.ProjectTypeWorkflow {
			continue
		}
		bucket.Total++
		if r.Ticket.Status != domain.TicketStatusCompleted || !r.SLA.Resolved() {
			continue
		}
		hours := r.SLA.ResolvedAt.Sub(r.Ticket.CreatedAt).Hours()
		resolutionHours = append(resolutionHours, hours)
		if hours <= expectedHours {
			bucket.OnTime++
		}
	}
	bucket.AvgResolutionHours = mean(resolutionHours)
	return bucket
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median returns the upper-middle element for even-length inputs, matching
// the dashboard's historical behavior. The input is not mutated.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}
