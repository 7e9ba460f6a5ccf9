package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/techdesk/internal/domain"
)

var evalBase = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTicket(priority domain.TicketPriority, workflow domain.WorkflowType, status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{
		ID:           "t1",
		Priority:     priority,
		WorkflowType: workflow,
		Status:       status,
		CreatedAt:    evalBase,
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func TestResolutionBreachBoundary(t *testing.T) {
	ticket := newTicket(domain.TicketPriorityDefcon, domain.WorkflowBug, domain.TicketStatusAssigned)
	record := &domain.SLARecord{TicketID: ticket.ID, FirstResponseAt: ptrTime(evalBase.Add(time.Hour))}

	eval := Evaluate(ticket, record, evalBase.Add(2*time.Hour+59*time.Minute))
	assert.False(t, eval.ResolutionBreached)

	eval = Evaluate(ticket, record, evalBase.Add(3*time.Hour+time.Minute))
	assert.True(t, eval.ResolutionBreached)
}

func TestResponseGraceOutlastsDefconDeadline(t *testing.T) {
	// A DEFCON ticket carries a 3h resolution deadline but keeps the flat
	// 24h first-response grace. At T+4h with no response it is resolution
	// breached yet not response breached.
	ticket := newTicket(domain.TicketPriorityDefcon, domain.WorkflowBug, domain.TicketStatusNew)

	eval := Evaluate(ticket, &domain.SLARecord{TicketID: ticket.ID}, evalBase.Add(4*time.Hour))
	assert.False(t, eval.ResponseBreached)
	assert.True(t, eval.ResolutionBreached)
}

func TestResponseBreachOnlyWhileUntouched(t *testing.T) {
	record := &domain.SLARecord{TicketID: "t1"}

	ticket := newTicket(domain.TicketPriorityLow, domain.WorkflowGeneral, domain.TicketStatusNew)
	eval := Evaluate(ticket, record, evalBase.Add(30*time.Hour))
	assert.True(t, eval.ResponseBreached)

	// Moving out of the initial stage stops the response-breach check even
	// without a recorded response.
	ticket.Status = domain.TicketStatusReviewed
	eval = Evaluate(ticket, record, evalBase.Add(30*time.Hour))
	assert.False(t, eval.ResponseBreached)
}

func TestLateResponseIsNotABreach(t *testing.T) {
	ticket := newTicket(domain.TicketPriorityLow, domain.WorkflowGeneral, domain.TicketStatusNew)
	record := &domain.SLARecord{
		TicketID:        ticket.ID,
		FirstResponseAt: ptrTime(evalBase.Add(40 * time.Hour)),
	}

	eval := Evaluate(ticket, record, evalBase.Add(50*time.Hour))
	assert.True(t, eval.Responded)
	assert.Equal(t, 40.0, eval.ResponseTimeHours)
	assert.False(t, eval.ResponseBreached)
}

func TestResolvedLateBreaches(t *testing.T) {
	ticket := newTicket(domain.TicketPriorityHigh, domain.WorkflowBug, domain.TicketStatusCompleted)
	record := &domain.SLARecord{
		TicketID:   ticket.ID,
		ResolvedAt: ptrTime(evalBase.Add(80 * time.Hour)),
	}

	eval := Evaluate(ticket, record, evalBase.Add(200*time.Hour))
	assert.True(t, eval.Resolved)
	assert.True(t, eval.ResolutionBreached)
	assert.False(t, eval.ResolvedOnTime())
	assert.Equal(t, 80.0, eval.ResolutionTimeHours)
}

func TestTerminalUnresolvedDoesNotBreach(t *testing.T) {
	ticket := newTicket(domain.TicketPriorityDefcon, domain.WorkflowBug, domain.TicketStatusRejected)

	eval := Evaluate(ticket, &domain.SLARecord{TicketID: ticket.ID}, evalBase.Add(100*time.Hour))
	assert.False(t, eval.ResolutionBreached)
}

func TestReopenedTicketEvaluatesAsOpen(t *testing.T) {
	ticket := newTicket(domain.TicketPriorityLow, domain.WorkflowGeneral, domain.TicketStatusAssigned)
	record := &domain.SLARecord{
		TicketID:        ticket.ID,
		FirstResponseAt: ptrTime(evalBase.Add(2 * time.Hour)),
		ReopenedCount:   1,
	}

	eval := Evaluate(ticket, record, evalBase.Add(10*time.Hour))
	assert.False(t, eval.Resolved)
	assert.Equal(t, 10.0, eval.ResolutionTimeHours)
	// The original response survives the reopen, so no response breach.
	assert.True(t, eval.Responded)
	assert.False(t, eval.ResponseBreached)
}

func TestNilRecordEvaluatesAsUntouched(t *testing.T) {
	ticket := newTicket(domain.TicketPriorityMedium, domain.WorkflowBug, domain.TicketStatusNew)

	eval := Evaluate(ticket, nil, evalBase.Add(25*time.Hour))
	assert.False(t, eval.Responded)
	assert.False(t, eval.Resolved)
	assert.True(t, eval.ResponseBreached)
	assert.Equal(t, 25.0, eval.ResponseTimeHours)
}
