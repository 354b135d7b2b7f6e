package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "helpdesk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedProfile(t *testing.T, store *Store, id string, role domain.Role) *domain.Profile {
	t.Helper()
	profile := &domain.Profile{ID: id, Email: id + "@example.com", DisplayName: id, Role: role}
	if err := store.UpsertProfile(context.Background(), profile); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return profile
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotentAcrossRestarts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "helpdesk.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = first.Close()
	second, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = second.Close()
}

func TestProfileLookupByEmailIgnoresCase(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedProfile(t, store, "op-1", domain.RoleOperator)

	got, err := store.Profiles().GetByEmail(context.Background(), "  OP-1@Example.com ")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "op-1" || got.Role != domain.RoleOperator {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if _, err := store.Profiles().GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCredentialUpdateOverwritesHash(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedProfile(t, store, "u-1", domain.RoleClient)
	ctx := context.Background()

	for _, hash := range []string{"first", "second"} {
		if err := store.Credentials().UpdatePasswordHash(ctx, "u-1", hash); err != nil {
			t.Fatalf("update hash: %v", err)
		}
	}
	got, err := store.PasswordHash(ctx, "u-1")
	if err != nil {
		t.Fatalf("password hash: %v", err)
	}
	if got != "second" {
		t.Fatalf("hash = %q, want second", got)
	}
}

func TestTicketStatusCompareAndSet(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	creator := seedProfile(t, store, "c-1", domain.RoleClient)
	ctx := context.Background()

	ticket := domain.NewTicket("t-1", domain.TicketSourceInteractive, "Printer", "Jammed")
	ticket.CreatorID = &creator.ID
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.Tickets().UpdateStatus(ctx, "t-1", domain.TicketStatusOpen, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %q", updated.Status)
	}

	if _, err := store.Tickets().UpdateStatus(ctx, "t-1", domain.TicketStatusOpen, domain.TicketStatusInProgress); !errors.Is(err, repository.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}

	got, err := store.Tickets().GetByID(ctx, "t-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TicketStatusInProgress || got.CreatorID == nil || *got.CreatorID != "c-1" {
		t.Fatalf("unexpected ticket: %+v", got)
	}
}

func TestHistoryRoundTripPreservesOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	ticket := domain.NewTicket("t-2", domain.TicketSourceEmail, "Mail", "")
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.TicketHistory{
		{ID: "h-1", TicketID: "t-2", ChangeType: domain.ChangeTypeCreated, NewValue: map[string]any{"status": "open"}, CreatedAt: base},
		{ID: "h-2", TicketID: "t-2", ChangeType: domain.ChangeTypeStatus, OldValue: map[string]any{"status": "open"}, NewValue: map[string]any{"status": "in_progress"}, CreatedAt: base.Add(time.Minute)},
	}
	for i := range entries {
		if err := store.History().Create(ctx, &entries[i]); err != nil {
			t.Fatalf("create history: %v", err)
		}
	}

	got, err := store.History().ListByTicket(ctx, "t-2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "h-1" || got[1].ID != "h-2" {
		t.Fatalf("unexpected history: %+v", got)
	}
	if got[1].OldValue["status"] != "open" || got[1].NewValue["status"] != "in_progress" {
		t.Fatalf("values not preserved: %+v", got[1])
	}
	if got[0].OldValue != nil {
		t.Fatalf("expected nil old value, got %v", got[0].OldValue)
	}
}

func TestClaimRollbackLeavesNoRecord(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	tx, existing, err := store.Claims().Claim(ctx, "msg-1")
	if err != nil || existing != nil || tx == nil {
		t.Fatalf("expected fresh claim, got tx=%v existing=%v err=%v", tx, existing, err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, err := store.Claims().GetByExternalID(ctx, "msg-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected claim to be gone, got %v", err)
	}

	tx, existing, err = store.Claims().Claim(ctx, "msg-1")
	if err != nil || existing != nil || tx == nil {
		t.Fatalf("expected claim to be available again, got existing=%v err=%v", existing, err)
	}
	_ = tx.Rollback(ctx)
}

func TestConcurrentClaimsProduceOneTicket(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	const workers = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		fresh   int
		results []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tx, existing, err := store.Claims().Claim(ctx, "local-1700000000")
			if err != nil {
				t.Errorf("claim: %v", err)
				return
			}
			if existing != nil {
				if !existing.Completed() {
					t.Errorf("loser observed incomplete claim: %+v", existing)
					return
				}
				mu.Lock()
				results = append(results, *existing.TicketID)
				mu.Unlock()
				return
			}
			messageID := "local-1700000000"
			ticket := domain.NewTicket("ticket-race", domain.TicketSourceEmail, "Race", "")
			ticket.ExternalMessageID = &messageID
			if err := tx.CreateTicket(ctx, ticket); err != nil {
				_ = tx.Rollback(ctx)
				t.Errorf("create ticket: %v", err)
				return
			}
			if err := tx.Complete(ctx, ticket.ID); err != nil {
				t.Errorf("complete: %v", err)
				return
			}
			mu.Lock()
			fresh++
			results = append(results, ticket.ID)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if fresh != 1 {
		t.Fatalf("fresh claims = %d, want 1", fresh)
	}
	if len(results) != workers {
		t.Fatalf("results = %d, want %d", len(results), workers)
	}
	for _, id := range results {
		if id != "ticket-race" {
			t.Fatalf("caller observed ticket %q", id)
		}
	}
}
