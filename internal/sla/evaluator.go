package sla

import (
	"time"

	"github.com/spec-kit/techdesk/internal/domain"
)

// Evaluation carries the derived SLA fields for one ticket at a reference
// instant. Durations are open-ended: when a milestone has not happened yet,
// the elapsed time up to the reference instant is reported instead.
type Evaluation struct {
	ResponseTimeHours       float64
	ResolutionTimeHours     float64
	ExpectedCompletionHours float64
	Responded               bool
	Resolved                bool
	ResponseBreached        bool
	ResolutionBreached      bool
}

// ResolvedOnTime reports whether the ticket was resolved within its
// expected-completion window.
func (e Evaluation) ResolvedOnTime() bool {
	return e.Resolved && e.ResolutionTimeHours <= e.ExpectedCompletionHours
}

// Evaluate computes the derived SLA fields for a ticket and its SLA record
// at the supplied reference time. The record may be nil for tickets whose
// SLA row is missing; they evaluate as never responded and never resolved.
func Evaluate(ticket domain.Ticket, record *domain.SLARecord, now time.Time) Evaluation {
	eval := Evaluation{
		ExpectedCompletionHours: ExpectedCompletionHours(ticket.Priority, ticket.WorkflowType),
	}

	elapsed := hoursBetween(ticket.CreatedAt, now)

	if record.Responded() {
		eval.Responded = true
		eval.ResponseTimeHours = hoursBetween(ticket.CreatedAt, *record.FirstResponseAt)
	} else {
		eval.ResponseTimeHours = elapsed
	}

	if record.Resolved() {
		eval.Resolved = true
		eval.ResolutionTimeHours = hoursBetween(ticket.CreatedAt, *record.ResolvedAt)
	} else {
		eval.ResolutionTimeHours = elapsed
	}

	// A ticket only breaches the response SLA while it sits untouched in the
	// initial stage. Once responded there is no response breach, however late.
	eval.ResponseBreached = !eval.Responded &&
		elapsed > ResponseThresholdHours &&
		ticket.Status == domain.TicketStatusNew

	if eval.Resolved {
		eval.ResolutionBreached = eval.ResolutionTimeHours > eval.ExpectedCompletionHours
	} else {
		eval.ResolutionBreached = !ticket.Status.IsTerminal() && elapsed > eval.ExpectedCompletionHours
	}

	return eval
}

func hoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}
