package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// ClaimCache is an optional fast path for completed claims.
type ClaimCache interface {
	Get(ctx context.Context, externalID string) (string, bool, error)
	Put(ctx context.Context, externalID, ticketID string) error
}

// ClaimOutcome is the result of claiming an external message id. Fresh outcomes carry the
// open claim; the caller must either Complete or Rollback it.
type ClaimOutcome struct {
	Fresh    bool
	Pending  repository.ClaimTx
	TicketID string
}

// DedupLedger decides which delivery of an external message creates the ticket. First
// writer wins through the store's uniqueness constraint on the external id.
type DedupLedger struct {
	claims repository.ClaimRepository
	cache  ClaimCache
	logger *zap.Logger
}

// NewDedupLedger constructs a ledger. cache may be nil.
func NewDedupLedger(claims repository.ClaimRepository, cache ClaimCache, logger *zap.Logger) *DedupLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DedupLedger{claims: claims, cache: cache, logger: logger}
}

// Claim returns Fresh for the first caller and the prior ticket id for everyone else. A
// claim still in flight, or one whose holder rolled back between our insert and our read,
// is reported as transient so the relay retries.
func (l *DedupLedger) Claim(ctx context.Context, externalID string) (ClaimOutcome, error) {
	if ticketID, ok := l.cached(ctx, externalID); ok {
		return ClaimOutcome{TicketID: ticketID}, nil
	}

	tx, existing, err := l.claims.Claim(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ClaimOutcome{}, apperrors.NewTransient(fmt.Errorf("claim %q released concurrently", externalID))
		}
		return ClaimOutcome{}, apperrors.NewTransient(err)
	}
	if tx != nil {
		return ClaimOutcome{Fresh: true, Pending: tx}, nil
	}
	if !existing.Completed() {
		return ClaimOutcome{}, apperrors.NewTransient(fmt.Errorf("claim %q is still in flight", externalID))
	}

	l.remember(ctx, externalID, *existing.TicketID)
	return ClaimOutcome{TicketID: *existing.TicketID}, nil
}

// Complete promotes the pending claim to point at ticketID and commits every write made
// through it.
func (l *DedupLedger) Complete(ctx context.Context, externalID string, pending repository.ClaimTx, ticketID string) error {
	if err := pending.Complete(ctx, ticketID); err != nil {
		_ = pending.Rollback(ctx)
		return apperrors.NewTransient(err)
	}
	l.remember(ctx, externalID, ticketID)
	return nil
}

func (l *DedupLedger) cached(ctx context.Context, externalID string) (string, bool) {
	if l.cache == nil {
		return "", false
	}
	ticketID, ok, err := l.cache.Get(ctx, externalID)
	if err != nil {
		l.logger.Warn("claim cache read failed", zap.String("external_id", externalID), zap.Error(err))
		return "", false
	}
	return ticketID, ok && ticketID != ""
}

func (l *DedupLedger) remember(ctx context.Context, externalID, ticketID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Put(ctx, externalID, ticketID); err != nil {
		l.logger.Warn("claim cache write failed", zap.String("external_id", externalID), zap.Error(err))
	}
}
