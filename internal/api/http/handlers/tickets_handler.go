package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk/internal/api/dto"
	"github.com/spec-kit/techdesk/internal/auth"
	"github.com/spec-kit/techdesk/internal/domain"
	"github.com/spec-kit/techdesk/internal/repository"
	"github.com/spec-kit/techdesk/internal/service"
	apperrors "github.com/spec-kit/techdesk/pkg/util"
)

// TicketsHandler manages tech-request endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}

	input := service.TicketCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		AccountName:    req.AccountName,
		Category:       req.Category,
		Priority:       domain.TicketPriority(req.Priority),
		WorkflowType:   domain.WorkflowType(req.WorkflowType),
		Tags:           req.Tags,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
	}
	ticket, err := h.service.CreateTicket(c.Context(), principalUser(principal), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	filter := parseTicketQuery(c)
	if user := principalUser(principal); user != nil && !user.IsAgent() {
		filter.RequesterID = &user.ID
	}
	tickets, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:shortID.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ticket, comments, activity, err := h.service.GetTicketDetail(c.Context(), principalUser(principal), c.Params("shortID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments, activity)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateStatus(c.Context(), principalUser(principal), c.Params("id"), domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AssignTicket PATCH /tickets/:id/assignee.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}
	ticket, err := h.service.AssignTicket(c.Context(), principalUser(principal), c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// SetGitlabLink PATCH /tickets/:id/gitlab.
func (h *TicketsHandler) SetGitlabLink(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.GitlabLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetGitlabLink(c.Context(), principalUser(principal), c.Params("id"), req.GitlabLink)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.Context(), principalUser(principal), c.Params("id"), req.Body, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func principalUser(principal *auth.Principal) *domain.User {
	if principal == nil {
		return nil
	}
	return principal.User
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if v := c.Query("priority"); v != "" {
		p := domain.TicketPriority(v)
		filter.Priority = &p
	}
	if v := c.Query("workflow_type"); v != "" {
		w := domain.WorkflowType(v)
		filter.WorkflowType = &w
	}
	if v := c.Query("project_type"); v != "" {
		p := domain.ProjectType(v)
		filter.ProjectType = &p
	}
	if v := c.Query("account"); v != "" {
		filter.AccountName = &v
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("assignee_id"); v != "" {
		filter.AssigneeID = &v
	}
	if v := c.Query("search"); v != "" {
		filter.SearchTerm = &v
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 1 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		ShortID:      ticket.ShortID,
		Title:        ticket.Title,
		AccountName:  ticket.AccountName,
		Category:     ticket.Category,
		Priority:     ticket.Priority,
		WorkflowType: ticket.WorkflowType,
		ProjectType:  ticket.ProjectType,
		Status:       ticket.Status,
		AssigneeID:   ticket.AssigneeID,
		GitlabLink:   ticket.GitlabLink,
		Tags:         ticket.Tags,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, comments []domain.Comment, activity []domain.AuditLog) dto.TicketDetailResponse {
	commentResps := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		commentResps = append(commentResps, commentResponse(&comments[i]))
	}
	activityResps := make([]dto.AuditLogResponse, 0, len(activity))
	for _, entry := range activity {
		activityResps = append(activityResps, dto.AuditLogResponse{
			ID:        entry.ID,
			ActorName: entry.ActorName,
			Action:    string(entry.Action),
			FromValue: entry.FromValue,
			ToValue:   entry.ToValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		Description:   ticket.Description,
		Comments:      commentResps,
		Activity:      activityResps,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		Body:       comment.Body,
		IsInternal: comment.IsInternal,
		AuthorName: comment.AuthorName,
		CreatedAt:  comment.CreatedAt,
	}
}
