package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/techdesk/internal/domain"
	"github.com/spec-kit/techdesk/internal/events"
	apperrors "github.com/spec-kit/techdesk/pkg/util"
)

var svcNow = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

type ticketFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	slas       *fakeSLARepo
	comments   *fakeCommentRepo
	audits     *fakeAuditRepo
	users      *fakeUserRepo
	dispatcher *captureDispatcher
	agent      *domain.User
	csp        *domain.User
}

func newTicketFixture() *ticketFixture {
	agent := &domain.User{ID: "agent-1", Name: "Dana", Role: domain.RoleAgent, Active: true}
	csp := &domain.User{ID: "csp-1", Name: "Pat", Email: "pat@example.com", Role: domain.RoleCSP, Active: true}

	f := &ticketFixture{
		tickets:    newFakeTicketRepo(),
		slas:       newFakeSLARepo(),
		comments:   &fakeCommentRepo{},
		audits:     &fakeAuditRepo{},
		users:      newFakeUserRepo(agent, csp),
		dispatcher: &captureDispatcher{},
		agent:      agent,
		csp:        csp,
	}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:  f.tickets,
		SLARepo:     f.slas,
		CommentRepo: f.comments,
		AuditRepo:   f.audits,
		UserRepo:    f.users,
		Dispatcher:  f.dispatcher,
		Now:         func() time.Time { return svcNow },
	})
	return f
}

func (f *ticketFixture) createTicket(t *testing.T, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.CreateTicket(context.Background(), f.csp, input)
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketDefaultsAndSLA(t *testing.T) {
	f := newTicketFixture()

	ticket := f.createTicket(t, TicketCreateInput{Title: "Broken export", Description: "CSV export 500s"})
	assert.Equal(t, "TR-0001", ticket.ShortID)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.WorkflowGeneral, ticket.WorkflowType)
	assert.Equal(t, domain.ProjectTypeWorkflow, ticket.ProjectType)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	require.NotNil(t, ticket.RequesterID)
	assert.Equal(t, f.csp.ID, *ticket.RequesterID)

	record, err := f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	// Medium default is 120h.
	assert.Equal(t, ticket.CreatedAt.Add(120*time.Hour), record.ExpectedCompletionAt)
	assert.Nil(t, record.FirstResponseAt)
	assert.Nil(t, record.ResolvedAt)

	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.dispatcher.types())
	assert.Equal(t, []domain.AuditAction{domain.AuditActionCreated}, f.audits.actions())
}

func TestCreateTicketShortIDsAreSequential(t *testing.T) {
	f := newTicketFixture()

	first := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})
	second := f.createTicket(t, TicketCreateInput{Title: "b", Description: "d"})
	assert.Equal(t, "TR-0001", first.ShortID)
	assert.Equal(t, "TR-0002", second.ShortID)
}

func TestCreateTicketWorkflowOverrideDeadline(t *testing.T) {
	f := newTicketFixture()

	ticket := f.createTicket(t, TicketCreateInput{
		Title:        "Rebrand portal",
		Description:  "white label build",
		Priority:     domain.TicketPriorityLow,
		WorkflowType: domain.WorkflowWhiteLabel,
	})
	assert.Equal(t, domain.ProjectTypeProject, ticket.ProjectType)

	record, err := f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.CreatedAt.Add(240*time.Hour), record.ExpectedCompletionAt)
}

func TestCreateTicketRequiresTitleAndDescription(t *testing.T) {
	f := newTicketFixture()

	_, err := f.service.CreateTicket(context.Background(), f.csp, TicketCreateInput{Title: "  "})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestResolveAndReopenCycle(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.UpdateStatus(context.Background(), f.agent, ticket.ID, domain.TicketStatusCompleted)
	require.NoError(t, err)

	record, err := f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, record.ResolvedAt)
	assert.Equal(t, svcNow, *record.ResolvedAt)
	assert.Zero(t, record.ReopenedCount)

	// Leaving Completed for an active stage clears resolvedAt and counts
	// exactly one reopen.
	_, err = f.service.UpdateStatus(context.Background(), f.agent, ticket.ID, domain.TicketStatusAssigned)
	require.NoError(t, err)

	record, err = f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, record.ResolvedAt)
	assert.Equal(t, 1, record.ReopenedCount)

	assert.Contains(t, f.dispatcher.types(), events.EventTicketReopened)
	assert.Contains(t, f.audits.actions(), domain.AuditActionReopened)
}

func TestCompletedToRejectedIsNotAReopen(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.UpdateStatus(context.Background(), f.agent, ticket.ID, domain.TicketStatusCompleted)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), f.agent, ticket.ID, domain.TicketStatusRejected)
	require.NoError(t, err)

	record, err := f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Zero(t, record.ReopenedCount)
	assert.NotNil(t, record.ResolvedAt)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.UpdateStatus(context.Background(), f.agent, ticket.ID, "Done")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestUpdateStatusNoopWhenUnchanged(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})
	before := len(f.dispatcher.types())

	_, err := f.service.UpdateStatus(context.Background(), f.agent, ticket.ID, domain.TicketStatusNew)
	require.NoError(t, err)
	assert.Len(t, f.dispatcher.types(), before)
}

func TestAssignmentSetsFirstResponseOnce(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.AssignTicket(context.Background(), f.agent, ticket.ID, f.agent.ID)
	require.NoError(t, err)

	record, err := f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, record.FirstResponseAt)
	firstResponse := *record.FirstResponseAt

	// A later agent comment must not move the stamp.
	_, err = f.service.AddComment(context.Background(), f.agent, ticket.ID, "looking at it", false)
	require.NoError(t, err)

	record, err = f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, firstResponse, *record.FirstResponseAt)
}

func TestAssignRejectsNonAgent(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.AssignTicket(context.Background(), f.agent, ticket.ID, f.csp.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestAgentCommentSetsFirstResponseRequesterCommentDoesNot(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.AddComment(context.Background(), f.csp, ticket.ID, "any update?", false)
	require.NoError(t, err)
	record, err := f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, record.FirstResponseAt)

	_, err = f.service.AddComment(context.Background(), f.agent, ticket.ID, "on it", false)
	require.NoError(t, err)
	record, err = f.slas.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, record.FirstResponseAt)
	assert.Equal(t, svcNow, *record.FirstResponseAt)
}

func TestRequesterCannotPostInternalComment(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.AddComment(context.Background(), f.csp, ticket.ID, "secret", true)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestDetailHidesInternalCommentsFromRequester(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	_, err := f.service.AddComment(context.Background(), f.agent, ticket.ID, "internal note", true)
	require.NoError(t, err)
	_, err = f.service.AddComment(context.Background(), f.agent, ticket.ID, "public reply", false)
	require.NoError(t, err)

	_, comments, _, err := f.service.GetTicketDetail(context.Background(), f.csp, ticket.ShortID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "public reply", comments[0].Body)

	_, comments, _, err = f.service.GetTicketDetail(context.Background(), f.agent, ticket.ShortID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestSetGitlabLinkEmitsEscalation(t *testing.T) {
	f := newTicketFixture()
	ticket := f.createTicket(t, TicketCreateInput{Title: "a", Description: "d"})

	updated, err := f.service.SetGitlabLink(context.Background(), f.agent, ticket.ID, "https://gitlab.example.com/eng/issues/7")
	require.NoError(t, err)
	require.NotNil(t, updated.GitlabLink)
	assert.Contains(t, f.dispatcher.types(), events.EventTicketEscalated)
	assert.Contains(t, f.audits.actions(), domain.AuditActionGitlabLinked)
}

func TestGetTicketNotFound(t *testing.T) {
	f := newTicketFixture()

	_, _, _, err := f.service.GetTicketDetail(context.Background(), f.agent, "TR-9999")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
