package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

type scriptedClaims struct {
	tx       repository.ClaimTx
	existing *domain.DedupRecord
	err      error
	calls    int
}

func (s *scriptedClaims) Claim(context.Context, string) (repository.ClaimTx, *domain.DedupRecord, error) {
	s.calls++
	return s.tx, s.existing, s.err
}

func (s *scriptedClaims) GetByExternalID(context.Context, string) (*domain.DedupRecord, error) {
	return s.existing, s.err
}

type mapCache struct {
	entries map[string]string
	err     error
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.err != nil {
		return "", false, c.err
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Put(_ context.Context, key, value string) error {
	if c.err != nil {
		return c.err
	}
	c.entries[key] = value
	return nil
}

func TestLedgerCollaboratorFailureIsTransientNotDuplicate(t *testing.T) {
	inFlight := &domain.DedupRecord{ExternalID: "m", State: domain.ClaimStateInFlight}
	cases := []struct {
		name   string
		claims *scriptedClaims
	}{
		{name: "store down", claims: &scriptedClaims{err: errors.New("connection refused")}},
		{name: "timeout", claims: &scriptedClaims{err: fmt.Errorf("insert claim: %w", context.DeadlineExceeded)}},
		{name: "holder rolled back", claims: &scriptedClaims{err: fmt.Errorf("load existing claim: %w", repository.ErrNotFound)}},
		{name: "still in flight", claims: &scriptedClaims{existing: inFlight}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewDedupLedger(tc.claims, nil, nil)
			outcome, err := ledger.Claim(context.Background(), "m")
			if !apperrors.IsTransient(err) {
				t.Fatalf("expected transient, got outcome=%+v err=%v", outcome, err)
			}
		})
	}
}

func TestLedgerCompletedRecordIsAlreadyClaimedAndCached(t *testing.T) {
	ticketID := "ticket-1"
	claims := &scriptedClaims{existing: &domain.DedupRecord{
		ExternalID: "m",
		TicketID:   &ticketID,
		State:      domain.ClaimStateCompleted,
	}}
	cache := &mapCache{entries: map[string]string{}}
	ledger := NewDedupLedger(claims, cache, nil)

	outcome, err := ledger.Claim(context.Background(), "m")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if outcome.Fresh || outcome.TicketID != "ticket-1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if cache.entries["m"] != "ticket-1" {
		t.Fatalf("expected cache fill, got %v", cache.entries)
	}

	outcome, err = ledger.Claim(context.Background(), "m")
	if err != nil || outcome.TicketID != "ticket-1" {
		t.Fatalf("unexpected second outcome: %+v err=%v", outcome, err)
	}
	if claims.calls != 1 {
		t.Fatalf("store calls = %d, want 1 (cache hit)", claims.calls)
	}
}

func TestLedgerCacheErrorFallsThroughToStore(t *testing.T) {
	store := openStore(t)
	ledger := NewDedupLedger(store.Claims(), &mapCache{err: errors.New("redis down")}, nil)

	outcome, err := ledger.Claim(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !outcome.Fresh || outcome.Pending == nil {
		t.Fatalf("expected fresh claim, got %+v", outcome)
	}
	_ = outcome.Pending.Rollback(context.Background())
}
