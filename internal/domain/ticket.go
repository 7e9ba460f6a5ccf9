package domain

import "time"

// TicketStatus enumerates pipeline stages for tech requests.
type TicketStatus string

const (
	TicketStatusNew             TicketStatus = "New Tech Request"
	TicketStatusReviewed        TicketStatus = "Reviewed"
	TicketStatusAssigned        TicketStatus = "Assigned"
	TicketStatusValidated       TicketStatus = "Validated"
	TicketStatusCompleted       TicketStatus = "Completed"
	TicketStatusTicket          TicketStatus = "Ticket"
	TicketStatusRejected        TicketStatus = "Rejected"
	TicketStatusEscalated       TicketStatus = "Escalated"
	TicketStatusScheduledClient TicketStatus = "Scheduled Client"
)

// TicketStatuses lists all pipeline stages in board order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusReviewed,
	TicketStatusAssigned,
	TicketStatusValidated,
	TicketStatusCompleted,
	TicketStatusTicket,
	TicketStatusRejected,
	TicketStatusEscalated,
	TicketStatusScheduledClient,
}

// IsTerminal reports whether the status ends the active SLA clock.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusRejected
}

// TicketPriority enumerates SLA urgency tiers.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
	TicketPriorityDefcon TicketPriority = "DEFCON"
)

// TicketPriorities lists priorities from least to most urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
	TicketPriorityDefcon,
}

// WorkflowType enumerates the work categories a ticket can carry.
type WorkflowType string

const (
	WorkflowBug              WorkflowType = "Bug"
	WorkflowGeneral          WorkflowType = "General"
	WorkflowExport           WorkflowType = "Export"
	WorkflowReportRequest    WorkflowType = "Report Request"
	WorkflowEnterpriseImport WorkflowType = "Enterprise Import"
	WorkflowDataMigration    WorkflowType = "Data Migration"
	WorkflowProposalBuild    WorkflowType = "Proposal Build"
	WorkflowWhiteLabel       WorkflowType = "White Label"
)

// WorkflowTypes lists all supported workflow types.
var WorkflowTypes = []WorkflowType{
	WorkflowBug,
	WorkflowGeneral,
	WorkflowExport,
	WorkflowReportRequest,
	WorkflowEnterpriseImport,
	WorkflowDataMigration,
	WorkflowProposalBuild,
	WorkflowWhiteLabel,
}

// ProjectType separates long-running project work from routine workflow tickets.
type ProjectType string

const (
	ProjectTypeProject  ProjectType = "Project"
	ProjectTypeWorkflow ProjectType = "Workflow"
)

// ClassifyProjectType derives the project classification from the workflow type.
func ClassifyProjectType(workflowType WorkflowType) ProjectType {
	switch workflowType {
	case WorkflowWhiteLabel, WorkflowDataMigration, WorkflowProposalBuild:
		return ProjectTypeProject
	default:
		return ProjectTypeWorkflow
	}
}

// Ticket is the aggregate for tech requests.
type Ticket struct {
	ID             string
	ShortID        string
	Title          string
	Description    string
	RequesterID    *string
	RequesterName  *string
	RequesterEmail *string
	AccountName    string
	Category       string
	Priority       TicketPriority
	WorkflowType   WorkflowType
	ProjectType    ProjectType
	Status         TicketStatus
	AssigneeID     *string
	AssignedAt     *time.Time
	GitlabLink     *string
	Tags           []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
