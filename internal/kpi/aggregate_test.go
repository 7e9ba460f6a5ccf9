package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/techdesk/internal/domain"
)

var aggNow = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestStatusHistogramDiscoveryOrder(t *testing.T) {
	records := []Record{
		{Ticket: domain.Ticket{Status: domain.TicketStatusAssigned}},
		{Ticket: domain.Ticket{Status: domain.TicketStatusNew}},
		{Ticket: domain.Ticket{Status: domain.TicketStatusAssigned}},
		{Ticket: domain.Ticket{Status: domain.TicketStatusCompleted}},
	}

	counts := StatusHistogram(records)
	require.Len(t, counts, 3)
	assert.Equal(t, StatusCount{Status: domain.TicketStatusAssigned, Count: 2}, counts[0])
	assert.Equal(t, StatusCount{Status: domain.TicketStatusNew, Count: 1}, counts[1])
	assert.Equal(t, StatusCount{Status: domain.TicketStatusCompleted, Count: 1}, counts[2])
}

func TestTimeSeriesCoverage(t *testing.T) {
	created := aggNow.Add(-3 * 24 * time.Hour)
	resolved := aggNow.Add(-24 * time.Hour)
	records := []Record{
		{
			Ticket: domain.Ticket{Status: domain.TicketStatusCompleted, CreatedAt: created},
			SLA:    &domain.SLARecord{ResolvedAt: timePtr(resolved)},
		},
	}

	points := TimeSeries(records, aggNow, 30)
	require.Len(t, points, 30)

	// Oldest first, no gaps, last entry is today.
	for i := 1; i < len(points); i++ {
		prev, err := time.Parse("2006-01-02", points[i-1].Date)
		require.NoError(t, err)
		cur, err := time.Parse("2006-01-02", points[i].Date)
		require.NoError(t, err)
		assert.Equal(t, prev.AddDate(0, 0, 1), cur)
	}
	assert.Equal(t, aggNow.Format("2006-01-02"), points[29].Date)

	totalCreated, totalResolved := 0, 0
	for _, p := range points {
		totalCreated += p.Created
		totalResolved += p.Resolved
		if p.Date == created.Format("2006-01-02") {
			assert.Equal(t, 1, p.Created)
		}
		if p.Date == resolved.Format("2006-01-02") {
			assert.Equal(t, 1, p.Resolved)
		}
	}
	assert.Equal(t, 1, totalCreated)
	assert.Equal(t, 1, totalResolved)
}

func TestTimeSeriesEmptyRecords(t *testing.T) {
	points := TimeSeries(nil, aggNow, 30)
	require.Len(t, points, 30)
	for _, p := range points {
		assert.Zero(t, p.Created)
		assert.Zero(t, p.Resolved)
	}
}

func TestAgentBreakdownZeroChecks(t *testing.T) {
	agents := []domain.User{{ID: "a1", Name: "Idle Agent", Role: domain.RoleAgent, Active: true}}

	metrics := AgentBreakdown(nil, agents, aggNow)
	require.Len(t, metrics, 1)
	assert.Equal(t, 0, metrics[0].TicketsAssigned)
	assert.Equal(t, 0.0, metrics[0].AvgResponseHours)
	assert.Equal(t, 0.0, metrics[0].AvgResolutionHours)
	assert.Equal(t, 100.0, metrics[0].SLACompliancePercent)
}

func TestAgentBreakdownSortedByAssignedDesc(t *testing.T) {
	busy, idle := "busy", "idle"
	agents := []domain.User{
		{ID: idle, Name: "Idle", Role: domain.RoleAgent, Active: true},
		{ID: busy, Name: "Busy", Role: domain.RoleAgent, Active: true},
	}
	created := aggNow.Add(-10 * time.Hour)
	records := []Record{
		{
			Ticket: domain.Ticket{
				Priority:   domain.TicketPriorityMedium,
				Status:     domain.TicketStatusCompleted,
				AssigneeID: &busy,
				CreatedAt:  created,
			},
			SLA: &domain.SLARecord{
				FirstResponseAt: timePtr(created.Add(time.Hour)),
				ResolvedAt:      timePtr(created.Add(5 * time.Hour)),
			},
		},
	}

	metrics := AgentBreakdown(records, agents, aggNow)
	require.Len(t, metrics, 2)
	assert.Equal(t, "Busy", metrics[0].AgentName)
	assert.Equal(t, 1, metrics[0].TicketsAssigned)
	assert.Equal(t, 1, metrics[0].TicketsResolved)
	assert.Equal(t, 1.0, metrics[0].AvgResponseHours)
	assert.Equal(t, 5.0, metrics[0].AvgResolutionHours)
	assert.Equal(t, 100.0, metrics[0].SLACompliancePercent)
	assert.Equal(t, "Idle", metrics[1].AgentName)
}

func TestAgentComplianceCountsBothMilestones(t *testing.T) {
	agent := "a1"
	agents := []domain.User{{ID: agent, Name: "Agent", Role: domain.RoleAgent, Active: true}}
	created := aggNow.Add(-200 * time.Hour)

	// Responded late (40h > 24h) but resolved on time for Low (168h): one of
	// two checks passes.
	records := []Record{
		{
			Ticket: domain.Ticket{
				Priority:   domain.TicketPriorityLow,
				Status:     domain.TicketStatusCompleted,
				AssigneeID: &agent,
				CreatedAt:  created,
			},
			SLA: &domain.SLARecord{
				FirstResponseAt: timePtr(created.Add(40 * time.Hour)),
				ResolvedAt:      timePtr(created.Add(100 * time.Hour)),
			},
		},
	}

	metrics := AgentBreakdown(records, agents, aggNow)
	require.Len(t, metrics, 1)
	assert.Equal(t, 50.0, metrics[0].SLACompliancePercent)
}

func TestProjectBreakdown(t *testing.T) {
	created := aggNow.Add(-300 * 24 * time.Hour)
	records := []Record{
		{
			Ticket: domain.Ticket{
				WorkflowType: domain.WorkflowWhiteLabel,
				ProjectType:  domain.ProjectTypeProject,
				Status:       domain.TicketStatusCompleted,
				CreatedAt:    created,
			},
			SLA: &domain.SLARecord{ResolvedAt: timePtr(created.Add(8 * 24 * time.Hour))},
		},
		{
			Ticket: domain.Ticket{
				WorkflowType: domain.WorkflowWhiteLabel,
				ProjectType:  domain.ProjectTypeProject,
				Status:       domain.TicketStatusCompleted,
				CreatedAt:    created,
			},
			SLA: &domain.SLARecord{ResolvedAt: timePtr(created.Add(12 * 24 * time.Hour))},
		},
		{
			Ticket: domain.Ticket{
				WorkflowType: domain.WorkflowWhiteLabel,
				ProjectType:  domain.ProjectTypeProject,
				Status:       domain.TicketStatusAssigned,
				CreatedAt:    created,
			},
			SLA: &domain.SLARecord{},
		},
	}

	metrics := ProjectBreakdown(records)
	assert.Equal(t, 3, metrics.WhiteLabelBuilds.Total)
	assert.Equal(t, 1, metrics.WhiteLabelBuilds.OnTime) // 8d <= 10d, 12d late
	assert.Equal(t, 10.0, metrics.WhiteLabelBuilds.AvgResolutionDays)
	assert.Zero(t, metrics.DataMigrations.Total)
	assert.Equal(t, 0.0, metrics.DataMigrations.AvgResolutionDays)
}

func TestPriorityBreakdownOnlyCountsWorkflowTickets(t *testing.T) {
	created := aggNow.Add(-100 * time.Hour)
	records := []Record{
		{
			Ticket: domain.Ticket{
				Priority:    domain.TicketPriorityHigh,
				ProjectType: domain.ProjectTypeWorkflow,
				Status:      domain.TicketStatusCompleted,
				CreatedAt:   created,
			},
			SLA: &domain.SLARecord{ResolvedAt: timePtr(created.Add(50 * time.Hour))},
		},
		{
			// Project-classified tickets stay out of the priority tiers.
			Ticket: domain.Ticket{
				Priority:    domain.TicketPriorityHigh,
				ProjectType: domain.ProjectTypeProject,
				Status:      domain.TicketStatusCompleted,
				CreatedAt:   created,
			},
			SLA: &domain.SLARecord{ResolvedAt: timePtr(created.Add(50 * time.Hour))},
		},
	}

	metrics := PriorityBreakdown(records)
	assert.Equal(t, 1, metrics.High.Total)
	assert.Equal(t, 1, metrics.High.OnTime)
	assert.Equal(t, 50.0, metrics.High.AvgResolutionHours)
}

func TestMedianUpperMiddle(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 5.0, median([]float64{5}))
	assert.Equal(t, 7.0, median([]float64{7, 3}))
	assert.Equal(t, 4.0, median([]float64{9, 1, 4}))
	assert.Equal(t, 6.0, median([]float64{8, 2, 6, 4}))

	values := []float64{3, 1, 2}
	_ = median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
