package dto

import "github.com/spec-kit/techdesk/internal/kpi"

// KPIStatsResponse is the dashboard stats payload with display rounding
// applied at the edge.
type KPIStatsResponse struct {
	TicketsCreated         int                    `json:"ticketsCreated"`
	TicketsInProgress      int                    `json:"ticketsInProgress"`
	TicketsResolvedOnTime  int                    `json:"ticketsResolvedOnTime"`
	TicketsDeclined        int                    `json:"ticketsDeclined"`
	GitlabTicketsSubmitted int                    `json:"gitlabTicketsSubmitted"`
	AvgFirstResponseHours  float64                `json:"avgFirstResponseHours"`
	MedianFirstResponseHrs float64                `json:"medianFirstResponseHours"`
	AvgResolutionHours     float64                `json:"avgResolutionHours"`
	SLABreaches            kpi.BreachCounts       `json:"slaBreaches"`
	ProjectMetrics         ProjectMetricsResponse `json:"projectMetrics"`
	WorkflowMetrics        WorkflowMetricsDTO     `json:"workflowMetrics"`
}

// ProjectBucketResponse shows one project workflow type.
type ProjectBucketResponse struct {
	Total   int     `json:"total"`
	OnTime  int     `json:"onTime"`
	AvgDays float64 `json:"avgDays"`
}

// ProjectMetricsResponse mirrors kpi.ProjectMetrics with rounded averages.
type ProjectMetricsResponse struct {
	ProposalBuilds    ProjectBucketResponse `json:"proposalBuilds"`
	WhiteLabelBuilds  ProjectBucketResponse `json:"whiteLabelBuilds"`
	DataMigrations    ProjectBucketResponse `json:"dataMigrations"`
	EnterpriseImports ProjectBucketResponse `json:"enterpriseImports"`
	ReportRequests    ProjectBucketResponse `json:"reportRequests"`
}

// WorkflowBucketResponse reports one priority tier. Day-granularity tiers
// carry avgDays, sub-day tiers carry avgHours.
type WorkflowBucketResponse struct {
	Total    int      `json:"total"`
	OnTime   int      `json:"onTime"`
	AvgDays  *float64 `json:"avgDays,omitempty"`
	AvgHours *float64 `json:"avgHours,omitempty"`
}

// WorkflowMetricsDTO mirrors kpi.WorkflowMetrics for presentation.
type WorkflowMetricsDTO struct {
	Low    WorkflowBucketResponse `json:"low"`
	Medium WorkflowBucketResponse `json:"medium"`
	High   WorkflowBucketResponse `json:"high"`
	Urgent WorkflowBucketResponse `json:"urgent"`
	Defcon WorkflowBucketResponse `json:"defcon"`
}

// NewKPIStatsResponse shapes the raw stats for display.
func NewKPIStatsResponse(stats kpi.Stats) KPIStatsResponse {
	return KPIStatsResponse{
		TicketsCreated:         stats.TicketsCreated,
		TicketsInProgress:      stats.TicketsInProgress,
		TicketsResolvedOnTime:  stats.TicketsResolvedOnTime,
		TicketsDeclined:        stats.TicketsDeclined,
		GitlabTicketsSubmitted: stats.GitlabTicketsSubmitted,
		AvgFirstResponseHours:  kpi.Round1(stats.AvgFirstResponseHours),
		MedianFirstResponseHrs: kpi.Round1(stats.MedianFirstResponseHrs),
		AvgResolutionHours:     kpi.Round1(stats.AvgResolutionHours),
		SLABreaches:            stats.SLABreaches,
		ProjectMetrics: ProjectMetricsResponse{
			ProposalBuilds:    projectBucket(stats.ProjectMetrics.ProposalBuilds),
			WhiteLabelBuilds:  projectBucket(stats.ProjectMetrics.WhiteLabelBuilds),
			DataMigrations:    projectBucket(stats.ProjectMetrics.DataMigrations),
			EnterpriseImports: projectBucket(stats.ProjectMetrics.EnterpriseImports),
			ReportRequests:    projectBucket(stats.ProjectMetrics.ReportRequests),
		},
		WorkflowMetrics: WorkflowMetricsDTO{
			Low:    dayBucket(stats.WorkflowMetrics.Low),
			Medium: dayBucket(stats.WorkflowMetrics.Medium),
			High:   dayBucket(stats.WorkflowMetrics.High),
			Urgent: hourBucket(stats.WorkflowMetrics.Urgent),
			Defcon: hourBucket(stats.WorkflowMetrics.Defcon),
		},
	}
}

func projectBucket(b kpi.ProjectBucket) ProjectBucketResponse {
	return ProjectBucketResponse{
		Total:   b.Total,
		OnTime:  b.OnTime,
		AvgDays: kpi.Round1(b.AvgResolutionDays),
	}
}

func dayBucket(b kpi.WorkflowBucket) WorkflowBucketResponse {
	days := kpi.Round1(b.AvgResolutionHours / 24)
	return WorkflowBucketResponse{Total: b.Total, OnTime: b.OnTime, AvgDays: &days}
}

func hourBucket(b kpi.WorkflowBucket) WorkflowBucketResponse {
	hours := kpi.Round1(b.AvgResolutionHours)
	return WorkflowBucketResponse{Total: b.Total, OnTime: b.OnTime, AvgHours: &hours}
}

// AgentMetricsResponse rounds the per-agent averages for display.
type AgentMetricsResponse struct {
	AgentID              string  `json:"agentId"`
	AgentName            string  `json:"agentName"`
	TicketsAssigned      int     `json:"ticketsAssigned"`
	TicketsResolved      int     `json:"ticketsResolved"`
	AvgResponseHours     float64 `json:"avgResponseHours"`
	AvgResolutionHours   float64 `json:"avgResolutionHours"`
	SLACompliancePercent float64 `json:"slaCompliancePercent"`
}

// NewAgentMetricsResponse shapes one agent row.
func NewAgentMetricsResponse(m kpi.AgentMetrics) AgentMetricsResponse {
	return AgentMetricsResponse{
		AgentID:              m.AgentID,
		AgentName:            m.AgentName,
		TicketsAssigned:      m.TicketsAssigned,
		TicketsResolved:      m.TicketsResolved,
		AvgResponseHours:     kpi.Round1(m.AvgResponseHours),
		AvgResolutionHours:   kpi.Round1(m.AvgResolutionHours),
		SLACompliancePercent: kpi.Round1(m.SLACompliancePercent),
	}
}
