// Package sla implements the deadline policy and per-ticket SLA evaluation
// for tech requests. All computations take an explicit reference time so a
// single report pass stays internally consistent.
package sla

import (
	"time"

	"github.com/spec-kit/techdesk/internal/domain"
)

// ResponseThresholdHours is the flat first-response target. It applies
// uniformly regardless of priority or workflow type, so a DEFCON ticket has
// a 3 hour resolution deadline but a 24 hour response grace period. That
// asymmetry is observed product behavior, kept on purpose.
const ResponseThresholdHours = 24

// ExpectedCompletionHours maps a (priority, workflow type) pair to the
// expected resolution window in hours. Workflow types with fixed project
// timelines win over priority defaults. The function is total: any
// unrecognized value falls back to 7 days.
func ExpectedCompletionHours(priority domain.TicketPriority, workflowType domain.WorkflowType) float64 {
	switch workflowType {
	case domain.WorkflowProposalBuild, domain.WorkflowWhiteLabel:
		return 10 * 24
	case domain.WorkflowDataMigration:
		return 7 * 24
	case domain.WorkflowEnterpriseImport:
		return 21 * 24
	case domain.WorkflowReportRequest:
		return 7 * 24
	}

	switch priority {
	case domain.TicketPriorityDefcon:
		return 3
	case domain.TicketPriorityUrgent:
		return 48
	case domain.TicketPriorityHigh:
		return 3 * 24
	case domain.TicketPriorityMedium:
		return 5 * 24
	case domain.TicketPriorityLow:
		return 7 * 24
	default:
		return 7 * 24
	}
}

// ExpectedCompletionAt returns the resolution deadline for a ticket created
// at the given instant.
func ExpectedCompletionAt(createdAt time.Time, priority domain.TicketPriority, workflowType domain.WorkflowType) time.Time {
	hours := ExpectedCompletionHours(priority, workflowType)
	return createdAt.Add(time.Duration(hours * float64(time.Hour)))
}
