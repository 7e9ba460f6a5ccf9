package domain

import "time"

// AuditAction identifies what changed on a ticket.
type AuditAction string

const (
	AuditActionCreated       AuditAction = "created"
	AuditActionStatusChanged AuditAction = "status_changed"
	AuditActionAssigned      AuditAction = "assigned"
	AuditActionReopened      AuditAction = "reopened"
	AuditActionGitlabLinked  AuditAction = "gitlab_linked"
	AuditActionCommented     AuditAction = "commented"
)

// AuditLog records a single ticket mutation for the activity feed.
type AuditLog struct {
	ID        string
	TicketID  string
	ActorID   *string
	ActorName string
	Action    AuditAction
	FromValue *string
	ToValue   *string
	CreatedAt time.Time
}
