package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/techdesk/internal/domain"
	"github.com/spec-kit/techdesk/internal/events"
	"github.com/spec-kit/techdesk/internal/repository"
	"github.com/spec-kit/techdesk/internal/sla"
	apperrors "github.com/spec-kit/techdesk/pkg/util"
)

// TicketService coordinates the tech-request lifecycle and keeps SLA
// records in step with it: creation stamps the expected completion,
// assignment and agent comments set the first response once, entering
// Completed resolves, and leaving Completed for an active stage reopens.
type TicketService struct {
	tickets  repository.TicketRepository
	slas     repository.SLARepository
	comments repository.CommentRepository
	audits   repository.AuditRepository
	users    repository.UserRepository

	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	SLARepo     repository.SLARepository
	CommentRepo repository.CommentRepository
	AuditRepo   repository.AuditRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Now         func() time.Time
}

// TicketCreateInput describes ticket submission payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	AccountName    string
	Category       string
	Priority       domain.TicketPriority
	WorkflowType   domain.WorkflowType
	Tags           []string
	RequesterName  *string
	RequesterEmail *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:    deps.TicketRepo,
		slas:       deps.SLARepo,
		comments:   deps.CommentRepo,
		audits:     deps.AuditRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		now:        deps.Now,
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// CreateTicket submits a new tech request with its SLA record.
func (s *TicketService) CreateTicket(ctx context.Context, requester *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	workflowType := input.WorkflowType
	if workflowType == "" {
		workflowType = domain.WorkflowGeneral
	}

	shortID, err := s.nextShortID(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	ticket := &domain.Ticket{
		ShortID:        shortID,
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		AccountName:    input.AccountName,
		Category:       input.Category,
		Priority:       priority,
		WorkflowType:   workflowType,
		ProjectType:    domain.ClassifyProjectType(workflowType),
		Status:         domain.TicketStatusNew,
		Tags:           input.Tags,
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
	}
	if requester != nil {
		ticket.RequesterID = &requester.ID
		ticket.RequesterName = &requester.Name
		ticket.RequesterEmail = &requester.Email
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	record := &domain.SLARecord{
		TicketID:             ticket.ID,
		ExpectedCompletionAt: sla.ExpectedCompletionAt(ticket.CreatedAt, priority, workflowType),
	}
	if err := s.slas.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, requester, ticket.ID, domain.AuditActionCreated, nil, strPtr(string(ticket.Status)))
	s.publishEvent(ctx, requester, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload: events.TicketCreatedPayload{
			ShortID:      ticket.ShortID,
			Title:        ticket.Title,
			Priority:     ticket.Priority,
			WorkflowType: ticket.WorkflowType,
			AccountName:  ticket.AccountName,
		},
	})
	return ticket, nil
}

// UpdateStatus moves a ticket between pipeline stages, mutating the SLA
// record on resolve and reopen transitions.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !validStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == newStatus {
		return ticket, nil
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	reopened := false
	switch {
	case newStatus == domain.TicketStatusCompleted:
		if err := s.slas.MarkResolved(ctx, ticket.ID, now); err != nil {
			return nil, apperrors.MapError(err)
		}
	case oldStatus == domain.TicketStatusCompleted && !newStatus.IsTerminal():
		// Re-entering an active stage after resolution clears resolvedAt and
		// counts exactly one reopen. The first response is not reset.
		if err := s.slas.Reopen(ctx, ticket.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
		reopened = true
	}

	s.recordAudit(ctx, actor, ticket.ID, domain.AuditActionStatusChanged, strPtr(string(oldStatus)), strPtr(string(newStatus)))
	s.publishEvent(ctx, actor, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	if reopened {
		record, err := s.slas.GetByTicket(ctx, ticket.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		s.recordAudit(ctx, actor, ticket.ID, domain.AuditActionReopened, nil, strPtr(strconv.Itoa(record.ReopenedCount)))
		s.publishEvent(ctx, actor, events.Event{
			Type:      events.EventTicketReopened,
			TicketID:  ticket.ID,
			Timestamp: now,
			Payload:   events.TicketReopenedPayload{ReopenedCount: record.ReopenedCount},
		})
	}
	return ticket, nil
}

// AssignTicket hands a ticket to an active agent. Assignment counts as the
// first response when none has been recorded yet.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID, assigneeID string) (*domain.Ticket, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.IsAgent() || !assignee.Active {
		return nil, apperrors.NewConflict("assignee must be an active agent", map[string]any{"user_id": assigneeID})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &assignee.ID
	ticket.AssignedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.slas.MarkFirstResponse(ctx, ticket.ID, now); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, actor, ticket.ID, domain.AuditActionAssigned, oldAssignee, &assignee.ID)
	s.publishEvent(ctx, actor, events.Event{
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload: events.TicketAssignedPayload{
			AssigneeID:   assignee.ID,
			AssigneeName: assignee.Name,
		},
	})
	return ticket, nil
}

// AddComment appends a comment. The first agent-authored comment sets the
// SLA first response exactly once; requesters may only post public comments
// on their own tickets.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string, isInternal bool) (*domain.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAgent() {
		if isInternal {
			return nil, apperrors.NewForbidden("internal comments are agent only")
		}
		if ticket.RequesterID == nil || *ticket.RequesterID != actor.ID {
			return nil, apperrors.NewForbidden("access denied")
		}
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		Body:       strings.TrimSpace(body),
		IsInternal: isInternal,
		AuthorID:   &actor.ID,
		AuthorName: actor.Name,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	if actor.IsAgent() {
		if err := s.slas.MarkFirstResponse(ctx, ticket.ID, now); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.recordAudit(ctx, actor, ticket.ID, domain.AuditActionCommented, nil, nil)
	s.publishEvent(ctx, actor, events.Event{
		Type:      events.EventTicketCommentAdded,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			IsInternal:  comment.IsInternal,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// SetGitlabLink records the engineering escalation link.
func (s *TicketService) SetGitlabLink(ctx context.Context, actor *domain.User, ticketID, link string) (*domain.Ticket, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, apperrors.NewValidationError("gitlab link required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldLink := ticket.GitlabLink
	ticket.GitlabLink = &link
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, actor, ticket.ID, domain.AuditActionGitlabLinked, oldLink, &link)
	s.publishEvent(ctx, actor, events.Event{
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Timestamp: s.now(),
		Payload:   events.TicketEscalatedPayload{GitlabLink: link},
	})
	return ticket, nil
}

// GetTicketDetail fetches a ticket with comments and activity, hiding
// internal comments from non-agents.
func (s *TicketService) GetTicketDetail(ctx context.Context, viewer *domain.User, shortID string) (*domain.Ticket, []domain.Comment, []domain.AuditLog, error) {
	ticket, err := s.tickets.GetByShortID(ctx, shortID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, nil, apperrors.NewNotFound("ticket", map[string]any{"short_id": shortID})
		}
		return nil, nil, nil, apperrors.MapError(err)
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	if viewer == nil || !viewer.IsAgent() {
		visible := make([]domain.Comment, 0, len(comments))
		for _, c := range comments {
			if !c.IsInternal {
				visible = append(visible, c)
			}
		}
		comments = visible
	}

	history, err := s.audits.ListByTicket(ctx, ticket.ID, 100)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, history, nil
}

// ListTickets returns tickets matching the board filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// nextShortID issues sequential TR-0001 style identifiers.
func (s *TicketService) nextShortID(ctx context.Context) (string, error) {
	last, err := s.tickets.LastShortID(ctx)
	if err != nil {
		return "", err
	}
	if last == "" {
		return "TR-0001", nil
	}
	parts := strings.SplitN(last, "-", 2)
	if len(parts) != 2 {
		return "TR-0001", nil
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return "TR-0001", nil
	}
	return fmt.Sprintf("TR-%04d", n+1), nil
}

func (s *TicketService) recordAudit(ctx context.Context, actor *domain.User, ticketID string, action domain.AuditAction, from, to *string) {
	if s.audits == nil {
		return
	}
	entry := &domain.AuditLog{
		TicketID:  ticketID,
		Action:    action,
		FromValue: from,
		ToValue:   to,
	}
	if actor != nil {
		entry.ActorID = &actor.ID
		entry.ActorName = actor.Name
	}
	_ = s.audits.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if actor != nil {
		event.ActorID = &actor.ID
		event.ActorName = actor.Name
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validStatus(status domain.TicketStatus) bool {
	for _, candidate := range domain.TicketStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func strPtr(v string) *string {
	return &v
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
