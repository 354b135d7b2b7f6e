package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
)

type claimStore struct {
	db *sql.DB
}

func (s *claimStore) Claim(ctx context.Context, externalID string) (repository.ClaimTx, *domain.DedupRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin claim: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO intake_claims (external_id, state, claimed_at)
        VALUES (?, ?, ?)`,
		externalID, domain.ClaimStateInFlight, toMillis(time.Now()))
	if err != nil {
		_ = tx.Rollback()
		if !isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("insert claim: %w", err)
		}
		existing, err := s.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, nil, fmt.Errorf("load existing claim: %w", err)
		}
		return nil, existing, nil
	}
	return &claimTx{tx: tx, externalID: externalID}, nil, nil
}

func (s *claimStore) GetByExternalID(ctx context.Context, externalID string) (*domain.DedupRecord, error) {
	var (
		record      domain.DedupRecord
		ticketID    sql.NullString
		claimedAt   int64
		completedAt sql.NullInt64
	)
	if err := s.db.QueryRowContext(ctx, `
        SELECT external_id, ticket_id, state, claimed_at, completed_at
        FROM intake_claims WHERE external_id = ?`, externalID).Scan(
		&record.ExternalID,
		&ticketID,
		&record.State,
		&claimedAt,
		&completedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	record.TicketID = stringPtr(ticketID)
	record.ClaimedAt = fromMillis(claimedAt)
	record.CompletedAt = timePtr(completedAt)
	return &record, nil
}

type claimTx struct {
	tx         *sql.Tx
	externalID string
}

func (c *claimTx) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	return insertTicket(ctx, c.tx, ticket)
}

func (c *claimTx) RecordHistory(ctx context.Context, entry *domain.TicketHistory) error {
	return insertHistory(ctx, c.tx, entry)
}

func (c *claimTx) Complete(ctx context.Context, ticketID string) error {
	res, err := c.tx.ExecContext(ctx, `
        UPDATE intake_claims SET ticket_id = ?, state = ?, completed_at = ?
        WHERE external_id = ? AND state = ?`,
		ticketID, domain.ClaimStateCompleted, toMillis(time.Now()), c.externalID, domain.ClaimStateInFlight)
	if err != nil {
		_ = c.tx.Rollback()
		return fmt.Errorf("promote claim: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		_ = c.tx.Rollback()
		return repository.ErrStaleWrite
	}
	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	return nil
}

func (c *claimTx) Rollback(context.Context) error {
	err := c.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
