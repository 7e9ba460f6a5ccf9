package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk/internal/domain"
)

// SLARepository encapsulates SLA record persistence. Milestone updates are
// expressed as dedicated operations so the set-once and reopen invariants
// live in one place.
type SLARepository interface {
	Create(ctx context.Context, record *domain.SLARecord) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.SLARecord, error)
	ListByTickets(ctx context.Context, ticketIDs []string) (map[string]*domain.SLARecord, error)
	// MarkFirstResponse sets firstResponseAt only when still unset.
	MarkFirstResponse(ctx context.Context, ticketID string, at time.Time) error
	// MarkResolved stamps resolvedAt.
	MarkResolved(ctx context.Context, ticketID string, at time.Time) error
	// Reopen clears resolvedAt and increments reopenedCount once.
	Reopen(ctx context.Context, ticketID string) error
}

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSLARepository instantiates repository.
func NewSLARepository(pool *pgxpool.Pool) SLARepository {
	return &slaRepository{pool: pool}
}

const slaColumns = `id, ticket_id, first_response_at, resolved_at, reopened_count, expected_completion_at, created_at, updated_at`

func (r *slaRepository) Create(ctx context.Context, record *domain.SLARecord) error {
	const query = `
        INSERT INTO sla_records (ticket_id, first_response_at, resolved_at, reopened_count, expected_completion_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		record.TicketID,
		record.FirstResponseAt,
		record.ResolvedAt,
		record.ReopenedCount,
		record.ExpectedCompletionAt,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

func (r *slaRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.SLARecord, error) {
	query := `SELECT ` + slaColumns + ` FROM sla_records WHERE ticket_id=$1`
	var record domain.SLARecord
	if err := scanSLA(r.pool.QueryRow(ctx, query, ticketID), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *slaRepository) ListByTickets(ctx context.Context, ticketIDs []string) (map[string]*domain.SLARecord, error) {
	result := make(map[string]*domain.SLARecord, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + slaColumns + ` FROM sla_records WHERE ticket_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var record domain.SLARecord
		if err := scanSLA(rows, &record); err != nil {
			return nil, err
		}
		result[record.TicketID] = &record
	}
	return result, rows.Err()
}

func (r *slaRepository) MarkFirstResponse(ctx context.Context, ticketID string, at time.Time) error {
	const query = `
        UPDATE sla_records SET first_response_at=$1, updated_at=NOW()
        WHERE ticket_id=$2 AND first_response_at IS NULL`
	_, err := r.pool.Exec(ctx, query, at, ticketID)
	return err
}

func (r *slaRepository) MarkResolved(ctx context.Context, ticketID string, at time.Time) error {
	const query = `
        UPDATE sla_records SET resolved_at=$1, updated_at=NOW()
        WHERE ticket_id=$2`
	cmd, err := r.pool.Exec(ctx, query, at, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaRepository) Reopen(ctx context.Context, ticketID string) error {
	const query = `
        UPDATE sla_records SET resolved_at=NULL, reopened_count=reopened_count+1, updated_at=NOW()
        WHERE ticket_id=$1`
	cmd, err := r.pool.Exec(ctx, query, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanSLA(row pgx.Row, record *domain.SLARecord) error {
	return row.Scan(
		&record.ID,
		&record.TicketID,
		&record.FirstResponseAt,
		&record.ResolvedAt,
		&record.ReopenedCount,
		&record.ExpectedCompletionAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
}
