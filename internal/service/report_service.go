package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/techdesk/internal/domain"
	"github.com/spec-kit/techdesk/internal/kpi"
	"github.com/spec-kit/techdesk/internal/persistence"
	"github.com/spec-kit/techdesk/internal/repository"
	apperrors "github.com/spec-kit/techdesk/pkg/util"
)

// ReportService produces the KPI report bundles. It fetches one consistent
// snapshot per request, threads a single reference instant through the whole
// computation, and caches assembled reports briefly in Redis.
type ReportService struct {
	tickets  repository.TicketRepository
	slas     repository.SLARepository
	users    repository.UserRepository
	cache    *persistence.Redis
	cacheTTL time.Duration
	logger   *zap.Logger
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	TicketRepo repository.TicketRepository
	SLARepo    repository.SLARepository
	UserRepo   repository.UserRepository
	Cache      *persistence.Redis
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		tickets:  deps.TicketRepo,
		slas:     deps.SLARepo,
		users:    deps.UserRepo,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		logger:   logger,
	}
}

// BuildReport assembles the full KPI report for the criteria at the given
// reference instant. Store failures fail the whole request; no partial
// zero-filled report is ever returned.
func (s *ReportService) BuildReport(ctx context.Context, criteria kpi.Criteria, now time.Time) (*kpi.Report, error) {
	if report, ok := s.fromCache(ctx, criteria); ok {
		return report, nil
	}

	records, agents, err := s.snapshot(ctx, criteria, now)
	if err != nil {
		return nil, err
	}

	report := kpi.BuildReport(records, agents, now)
	s.toCache(ctx, criteria, report)
	return report, nil
}

// Stats returns only the flat stats bundle.
func (s *ReportService) Stats(ctx context.Context, criteria kpi.Criteria, now time.Time) (kpi.Stats, error) {
	report, err := s.BuildReport(ctx, criteria, now)
	if err != nil {
		return kpi.Stats{}, err
	}
	return report.Stats, nil
}

// AgentMetrics returns only the per-agent breakdown.
func (s *ReportService) AgentMetrics(ctx context.Context, criteria kpi.Criteria, now time.Time) ([]kpi.AgentMetrics, error) {
	report, err := s.BuildReport(ctx, criteria, now)
	if err != nil {
		return nil, err
	}
	return report.AgentMetrics, nil
}

// Charts returns only the chart series.
func (s *ReportService) Charts(ctx context.Context, criteria kpi.Criteria, now time.Time) (kpi.ChartData, error) {
	report, err := s.BuildReport(ctx, criteria, now)
	if err != nil {
		return kpi.ChartData{}, err
	}
	return report.Charts, nil
}

// snapshot reads tickets, SLA rows, and agents once. Equality dimensions are
// pushed down to the store; date shorthands and free-text search are applied
// in the filter layer against the same reference instant.
func (s *ReportService) snapshot(ctx context.Context, criteria kpi.Criteria, now time.Time) ([]kpi.Record, []domain.User, error) {
	repoFilter := repository.TicketFilter{}
	if criteria.AgentID != "" {
		repoFilter.AssigneeID = &criteria.AgentID
	}
	if criteria.Priority != "" {
		p := domain.TicketPriority(criteria.Priority)
		repoFilter.Priority = &p
	}
	if criteria.WorkflowType != "" {
		w := domain.WorkflowType(criteria.WorkflowType)
		repoFilter.WorkflowType = &w
	}
	if criteria.ProjectType != "" {
		p := domain.ProjectType(criteria.ProjectType)
		repoFilter.ProjectType = &p
	}
	if criteria.Account != "" {
		repoFilter.AccountName = &criteria.Account
	}
	if criteria.Category != "" {
		repoFilter.Category = &criteria.Category
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, nil, apperrors.NewDataUnavailable("ticket", err)
	}
	tickets = kpi.Filter(tickets, criteria, now)

	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	slaByTicket, err := s.slas.ListByTickets(ctx, ids)
	if err != nil {
		return nil, nil, apperrors.NewDataUnavailable("sla", err)
	}

	agents, err := s.users.ListAgents(ctx)
	if err != nil {
		return nil, nil, apperrors.NewDataUnavailable("user", err)
	}

	records := make([]kpi.Record, 0, len(tickets))
	for _, t := range tickets {
		records = append(records, kpi.Record{Ticket: t, SLA: slaByTicket[t.ID]})
	}
	return records, agents, nil
}

func (s *ReportService) fromCache(ctx context.Context, criteria kpi.Criteria) (*kpi.Report, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	payload, err := s.cache.GetCached(ctx, reportCacheKey(criteria))
	if err != nil {
		if !errors.Is(err, persistence.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var report kpi.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false
	}
	return &report, true
}

func (s *ReportService) toCache(ctx context.Context, criteria kpi.Criteria, report *kpi.Report) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.SetCached(ctx, reportCacheKey(criteria), payload, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}
}

func reportCacheKey(criteria kpi.Criteria) string {
	payload, _ := json.Marshal(criteria)
	sum := sha256.Sum256(payload)
	return "kpi:report:" + hex.EncodeToString(sum[:8])
}
