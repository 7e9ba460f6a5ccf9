package domain

import "time"

// Comment is a message on a ticket. Internal comments are visible to
// agents only and never trigger requester notifications.
type Comment struct {
	ID         string
	TicketID   string
	Body       string
	IsInternal bool
	AuthorID   *string
	AuthorName string
	CreatedAt  time.Time
}
