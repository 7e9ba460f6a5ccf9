package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk/internal/domain"
)

// TicketFilter captures the query dimensions supported by the board and the
// KPI dashboard.
type TicketFilter struct {
	RequesterID  *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priority     *domain.TicketPriority
	WorkflowType *domain.WorkflowType
	ProjectType  *domain.ProjectType
	AccountName  *string
	Category     *string
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	LastShortID(ctx context.Context) (string, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, short_id, title, description, requester_user_id, requester_name, requester_email,
       account_name, category, priority, workflow_type, project_type, status,
       assignee_user_id, assigned_at, gitlab_link, tags, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (short_id, title, description, requester_user_id, requester_name, requester_email,
            account_name, category, priority, workflow_type, project_type, status,
            assignee_user_id, assigned_at, gitlab_link, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ShortID,
		ticket.Title,
		ticket.Description,
		ticket.RequesterID,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.AccountName,
		ticket.Category,
		ticket.Priority,
		ticket.WorkflowType,
		ticket.ProjectType,
		ticket.Status,
		ticket.AssigneeID,
		ticket.AssignedAt,
		ticket.GitlabLink,
		ticket.Tags,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, account_name=$3, category=$4, priority=$5,
            workflow_type=$6, project_type=$7, status=$8, assignee_user_id=$9, assigned_at=$10,
            gitlab_link=$11, tags=$12, updated_at=NOW()
        WHERE id=$13`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.AccountName,
		ticket.Category,
		ticket.Priority,
		ticket.WorkflowType,
		ticket.ProjectType,
		ticket.Status,
		ticket.AssigneeID,
		ticket.AssignedAt,
		ticket.GitlabLink,
		ticket.Tags,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByShortID(ctx context.Context, shortID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE short_id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, shortID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// LastShortID returns the most recently issued short id, or empty when no
// tickets exist.
func (r *ticketRepository) LastShortID(ctx context.Context) (string, error) {
	const query = `SELECT short_id FROM tickets ORDER BY created_at DESC LIMIT 1`
	var shortID string
	err := r.pool.QueryRow(ctx, query).Scan(&shortID)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return shortID, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_user_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_user_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.WorkflowType != nil {
		args = append(args, *filter.WorkflowType)
		clauses = append(clauses, fmt.Sprintf("workflow_type=$%d", len(args)))
	}
	if filter.ProjectType != nil {
		args = append(args, *filter.ProjectType)
		clauses = append(clauses, fmt.Sprintf("project_type=$%d", len(args)))
	}
	if filter.AccountName != nil {
		args = append(args, *filter.AccountName)
		clauses = append(clauses, fmt.Sprintf("account_name=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(short_id) LIKE %s OR LOWER(account_name) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query = fmt.Sprintf(`%s LIMIT %d OFFSET %d`, query, filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ShortID,
		&ticket.Title,
		&ticket.Description,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.RequesterEmail,
		&ticket.AccountName,
		&ticket.Category,
		&ticket.Priority,
		&ticket.WorkflowType,
		&ticket.ProjectType,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.AssignedAt,
		&ticket.GitlabLink,
		&ticket.Tags,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
