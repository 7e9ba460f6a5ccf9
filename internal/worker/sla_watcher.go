package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk/internal/config"
	"github.com/spec-kit/techdesk/internal/domain"
	"github.com/spec-kit/techdesk/internal/events"
	"github.com/spec-kit/techdesk/internal/repository"
	"github.com/spec-kit/techdesk/internal/sla"
)

// SLAWatcher periodically scans open tickets and emits one breach event per
// ticket per breach kind. Each scan evaluates every ticket against the same
// reference instant.
type SLAWatcher struct {
	tickets    repository.TicketRepository
	slas       repository.SLARepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.SLAWatchConfig

	cron *cron.Cron

	mu       sync.Mutex
	notified map[string]struct{}
}

// NewSLAWatcher constructs the watcher.
func NewSLAWatcher(cfg config.SLAWatchConfig, tickets repository.TicketRepository, slas repository.SLARepository, dispatcher events.Dispatcher, logger *zap.Logger) *SLAWatcher {
	return &SLAWatcher{
		tickets:    tickets,
		slas:       slas,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		notified:   make(map[string]struct{}),
	}
}

// Start schedules the periodic scan. It is a no-op when disabled.
func (w *SLAWatcher) Start() error {
	if !w.cfg.Enabled {
		w.logger.Info("sla watcher disabled")
		return nil
	}
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := w.Scan(ctx, time.Now()); err != nil {
			w.logger.Warn("sla scan failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("sla watcher started", zap.String("schedule", w.cfg.Schedule))
	return nil
}

// Stop halts the scheduler.
func (w *SLAWatcher) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// Scan evaluates all non-terminal tickets at the given instant and emits
// events for breaches not yet announced.
func (w *SLAWatcher) Scan(ctx context.Context, now time.Time) error {
	filter := repository.TicketFilter{
		Statuses: []domain.TicketStatus{
			domain.TicketStatusNew,
			domain.TicketStatusReviewed,
			domain.TicketStatusAssigned,
			domain.TicketStatusValidated,
			domain.TicketStatusTicket,
			domain.TicketStatusEscalated,
			domain.TicketStatusScheduledClient,
		},
	}
	tickets, err := w.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	slaByTicket, err := w.slas.ListByTickets(ctx, ids)
	if err != nil {
		return err
	}

	for _, ticket := range tickets {
		eval := sla.Evaluate(ticket, slaByTicket[ticket.ID], now)
		if !eval.ResponseBreached && !eval.ResolutionBreached {
			continue
		}
		key := breachKey(ticket.ID, eval)
		if !w.firstSighting(key) {
			continue
		}
		w.logger.Warn("sla breached",
			zap.String("ticket", ticket.ShortID),
			zap.Bool("response", eval.ResponseBreached),
			zap.Bool("resolution", eval.ResolutionBreached))
		_ = w.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSLABreached,
			TicketID:  ticket.ID,
			Timestamp: now,
			Payload: events.SLABreachedPayload{
				ShortID:            ticket.ShortID,
				ResponseBreached:   eval.ResponseBreached,
				ResolutionBreached: eval.ResolutionBreached,
				HoursElapsed:       now.Sub(ticket.CreatedAt).Hours(),
			},
		})
	}
	return nil
}

func breachKey(ticketID string, eval sla.Evaluation) string {
	key := ticketID
	if eval.ResponseBreached {
		key += "|response"
	}
	if eval.ResolutionBreached {
		key += "|resolution"
	}
	return key
}

func (w *SLAWatcher) firstSighting(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.notified[key]; seen {
		return false
	}
	w.notified[key] = struct{}{}
	return true
}
