// Package kpi computes the SLA/KPI report bundles served to the dashboard:
// filtered working sets, grouped aggregations, per-agent metrics, and the
// assembled stats objects. Everything here is pure over in-memory records;
// fetching is the repository layer's concern.
package kpi

import (
	"strings"
	"time"

	"github.com/spec-kit/techdesk/internal/domain"
)

// Named shorthand date ranges resolved against the caller-supplied now.
const (
	DateRangeToday   = "today"
	DateRangeWeek    = "week"
	DateRangeMonth   = "month"
	DateRangeQuarter = "quarter"
)

// Criteria narrows the working set before aggregation. All fields are
// optional and conjunctive; Search alone matches any of title, short id, or
// account name. Values outside the recognized enumerations simply match no
// records.
type Criteria struct {
	DateRange    string
	StartDate    *time.Time
	EndDate      *time.Time
	AgentID      string
	Priority     string
	WorkflowType string
	ProjectType  string
	Account      string
	Category     string
	Search       string
}

// Filter returns the subset of tickets matching the criteria. The input is
// never mutated. Shorthand date ranges resolve deterministically from now so
// one aggregation pass cannot straddle a day boundary.
func Filter(tickets []domain.Ticket, criteria Criteria, now time.Time) []domain.Ticket {
	matched := make([]domain.Ticket, 0, len(tickets))
	start, end := criteria.dateWindow(now)
	for _, ticket := range tickets {
		if criteria.matches(ticket, start, end) {
			matched = append(matched, ticket)
		}
	}
	return matched
}

func (c Criteria) matches(t domain.Ticket, start, end *time.Time) bool {
	if start != nil && t.CreatedAt.Before(*start) {
		return false
	}
	if end != nil && t.CreatedAt.After(*end) {
		return false
	}
	if c.AgentID != "" {
		if t.AssigneeID == nil || *t.AssigneeID != c.AgentID {
			return false
		}
	}
	if c.Priority != "" && string(t.Priority) != c.Priority {
		return false
	}
	if c.WorkflowType != "" && string(t.WorkflowType) != c.WorkflowType {
		return false
	}
	if c.ProjectType != "" && string(t.ProjectType) != c.ProjectType {
		return false
	}
	if c.Account != "" && t.AccountName != c.Account {
		return false
	}
	if c.Category != "" && t.Category != c.Category {
		return false
	}
	if c.Search != "" && !matchesSearch(t, c.Search) {
		return false
	}
	return true
}

func matchesSearch(t domain.Ticket, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.ShortID), needle) ||
		strings.Contains(strings.ToLower(t.AccountName), needle)
}

// dateWindow resolves the effective created-at window. An explicit range
// wins over the shorthand.
func (c Criteria) dateWindow(now time.Time) (*time.Time, *time.Time) {
	if c.StartDate != nil && c.EndDate != nil {
		return c.StartDate, c.EndDate
	}

	var start time.Time
	switch c.DateRange {
	case DateRangeToday:
		start = startOfDay(now)
	case DateRangeWeek:
		start = now.Add(-7 * 24 * time.Hour)
	case DateRangeMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case DateRangeQuarter:
		quarterStart := time.Month((int(now.Month())-1)/3*3 + 1)
		start = time.Date(now.Year(), quarterStart, 1, 0, 0, 0, 0, now.Location())
	default:
		return c.StartDate, c.EndDate
	}
	return &start, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
