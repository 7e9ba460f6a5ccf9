package events

import (
	"time"

	"github.com/spec-kit/techdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketReopened      EventType = "ticket_reopened"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventSLABreached         EventType = "sla_breached"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	ActorName string      `json:"actor_name,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ShortID      string                `json:"short_id"`
	Title        string                `json:"title"`
	Priority     domain.TicketPriority `json:"priority"`
	WorkflowType domain.WorkflowType   `json:"workflow_type"`
	AccountName  string                `json:"account_name"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name,omitempty"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	ReopenedCount int `json:"reopened_count"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	GitlabLink string `json:"gitlab_link"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	ShortID            string  `json:"short_id"`
	ResponseBreached   bool    `json:"response_breached"`
	ResolutionBreached bool    `json:"resolution_breached"`
	HoursElapsed       float64 `json:"hours_elapsed"`
}
