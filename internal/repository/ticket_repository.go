package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdateStatus moves a ticket from one status to another and fails with ErrStaleWrite
	// when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (*domain.Ticket, error)
	UpdateOwner(ctx context.Context, id string, ownerID *string) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_message_id, title, description, status, source, creator_id, owner_id,
               requester_email, requester_name, business_key, received_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return insertTicket(ctx, r.pool, ticket)
}

func insertTicket(ctx context.Context, db dbtx, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, external_message_id, title, description, status, source, creator_id, owner_id,
            requester_email, requester_name, business_key, received_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at`
	return db.QueryRow(ctx, query,
		ticket.ID,
		ticket.ExternalMessageID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Source,
		ticket.CreatorID,
		ticket.OwnerID,
		ticket.RequesterEmail,
		ticket.RequesterName,
		ticket.BusinessKey,
		ticket.ReceivedAt,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET status=$1, updated_at=$2
        WHERE id=$3 AND status=$4
        RETURNING ` + ticketColumns
	ticket, err := r.fetchSingle(ctx, query, to, time.Now().UTC(), id, from)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrStaleWrite
	}
	return ticket, err
}

func (r *ticketRepository) UpdateOwner(ctx context.Context, id string, ownerID *string) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET owner_id=$1, updated_at=$2
        WHERE id=$3
        RETURNING ` + ticketColumns
	return r.fetchSingle(ctx, query, ownerID, time.Now().UTC(), id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.ExternalMessageID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Source,
		&ticket.CreatorID,
		&ticket.OwnerID,
		&ticket.RequesterEmail,
		&ticket.RequesterName,
		&ticket.BusinessKey,
		&ticket.ReceivedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &ticket, nil
}
