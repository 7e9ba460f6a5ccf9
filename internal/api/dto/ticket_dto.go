package dto

import (
	"time"

	"github.com/spec-kit/techdesk/internal/domain"
)

// CreateTicketRequest is the submission payload.
type CreateTicketRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AccountName    string   `json:"account_name"`
	Category       string   `json:"category"`
	Priority       string   `json:"priority"`
	WorkflowType   string   `json:"workflow_type"`
	Tags           []string `json:"tags"`
	RequesterName  *string  `json:"requester_name,omitempty"`
	RequesterEmail *string  `json:"requester_email,omitempty"`
}

// UpdateStatusRequest moves a ticket between stages.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignTicketRequest sets the assignee.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// GitlabLinkRequest records the engineering escalation link.
type GitlabLinkRequest struct {
	GitlabLink string `json:"gitlab_link"`
}

// CreateCommentRequest adds a comment.
type CreateCommentRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// TicketSummary is the list representation.
type TicketSummary struct {
	ID           string                `json:"id"`
	ShortID      string                `json:"short_id"`
	Title        string                `json:"title"`
	AccountName  string                `json:"account_name"`
	Category     string                `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	WorkflowType domain.WorkflowType   `json:"workflow_type"`
	ProjectType  domain.ProjectType    `json:"project_type"`
	Status       domain.TicketStatus   `json:"status"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
	GitlabLink   *string               `json:"gitlab_link,omitempty"`
	Tags         []string              `json:"tags,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// CommentResponse is a ticket comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"is_internal"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLogResponse is one activity feed entry.
type AuditLogResponse struct {
	ID        string    `json:"id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	FromValue *string   `json:"from_value,omitempty"`
	ToValue   *string   `json:"to_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetailResponse is the full ticket view.
type TicketDetailResponse struct {
	TicketSummary
	Description string             `json:"description"`
	Comments    []CommentResponse  `json:"comments"`
	Activity    []AuditLogResponse `json:"activity"`
}
