package domain

import "time"

// SLARecord tracks response and resolution milestones for a ticket.
// It is created together with its ticket and mutated by lifecycle events:
// the first agent comment or assignment sets FirstResponseAt once, entering
// the Completed status sets ResolvedAt, and reopening clears ResolvedAt while
// incrementing ReopenedCount.
type SLARecord struct {
	ID                   string
	TicketID             string
	FirstResponseAt      *time.Time
	ResolvedAt           *time.Time
	ReopenedCount        int
	ExpectedCompletionAt time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Responded reports whether a first response has been recorded.
func (s *SLARecord) Responded() bool {
	return s != nil && s.FirstResponseAt != nil
}

// Resolved reports whether the ticket currently counts as resolved.
func (s *SLARecord) Resolved() bool {
	return s != nil && s.ResolvedAt != nil
}
