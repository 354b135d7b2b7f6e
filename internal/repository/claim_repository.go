package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
)

// ClaimRepository records which external message identifiers already produced a ticket.
type ClaimRepository interface {
	// Claim inserts an in-flight claim for externalID inside a new transaction. When another
	// claim already holds the key, the transaction is discarded and the existing record is
	// returned instead. Exactly one of the returned ClaimTx and record is non-nil on success.
	Claim(ctx context.Context, externalID string) (ClaimTx, *domain.DedupRecord, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.DedupRecord, error)
}

// ClaimTx is an open claim. Writes made through it commit together with the claim's
// promotion in Complete, or are discarded together by Rollback.
type ClaimTx interface {
	CreateTicket(ctx context.Context, ticket *domain.Ticket) error
	RecordHistory(ctx context.Context, entry *domain.TicketHistory) error
	Complete(ctx context.Context, ticketID string) error
	Rollback(ctx context.Context) error
}

type claimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository instantiates repository.
func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepository{pool: pool}
}

func (r *claimRepository) Claim(ctx context.Context, externalID string) (ClaimTx, *domain.DedupRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin claim: %w", err)
	}

	const query = `
        INSERT INTO intake_claims (external_id, state, claimed_at)
        VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, query, externalID, domain.ClaimStateInFlight, time.Now().UTC()); err != nil {
		_ = tx.Rollback(ctx)
		if !isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("insert claim: %w", err)
		}
		existing, err := r.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, nil, fmt.Errorf("load existing claim: %w", err)
		}
		return nil, existing, nil
	}

	return &pgClaimTx{tx: tx, externalID: externalID}, nil, nil
}

func (r *claimRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.DedupRecord, error) {
	const query = `
        SELECT external_id, ticket_id, state, claimed_at, completed_at
        FROM intake_claims WHERE external_id=$1`
	var record domain.DedupRecord
	if err := r.pool.QueryRow(ctx, query, externalID).Scan(
		&record.ExternalID,
		&record.TicketID,
		&record.State,
		&record.ClaimedAt,
		&record.CompletedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &record, nil
}

type pgClaimTx struct {
	tx         pgx.Tx
	externalID string
}

func (c *pgClaimTx) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	return insertTicket(ctx, c.tx, ticket)
}

func (c *pgClaimTx) RecordHistory(ctx context.Context, entry *domain.TicketHistory) error {
	return insertHistory(ctx, c.tx, entry)
}

func (c *pgClaimTx) Complete(ctx context.Context, ticketID string) error {
	const query = `
        UPDATE intake_claims SET ticket_id=$1, state=$2, completed_at=$3
        WHERE external_id=$4 AND state=$5`
	cmd, err := c.tx.Exec(ctx, query, ticketID, domain.ClaimStateCompleted, time.Now().UTC(), c.externalID, domain.ClaimStateInFlight)
	if err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("promote claim: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		_ = c.tx.Rollback(ctx)
		return ErrStaleWrite
	}
	return c.tx.Commit(ctx)
}

func (c *pgClaimTx) Rollback(ctx context.Context) error {
	err := c.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
