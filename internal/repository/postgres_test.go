package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/config"
	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/persistence"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
)

func openPostgres(t *testing.T) *persistence.Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := persistence.OpenPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 16, RunMigrations: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(pg.Close)
	return pg
}

func TestPostgresClaimRace(t *testing.T) {
	claims := openPostgres(t).Claims()
	externalID := "pg-race-" + uuid.NewString()
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, _, err := claims.Claim(ctx, externalID)
			if err != nil || tx == nil {
				return
			}
			ticket := domain.NewTicket(uuid.NewString(), domain.TicketSourceEmail, "race", "")
			ticket.ExternalMessageID = &externalID
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
			created = append(created, ticket.ID)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(created) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(created))
	}
	record, err := claims.GetByExternalID(ctx, externalID)
	if err != nil {
		t.Fatalf("load claim: %v", err)
	}
	if record.State != domain.ClaimStateCompleted || record.TicketID == nil || *record.TicketID != created[0] {
		t.Fatalf("unexpected claim record: %+v", record)
	}
}

func TestPostgresStatusCompareAndSet(t *testing.T) {
	tickets := openPostgres(t).Tickets()
	ctx := context.Background()

	ticket := domain.NewTicket(uuid.NewString(), domain.TicketSourceInteractive, "cas", "")
	if err := tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusOpen, domain.TicketStatusInProgress); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if _, err := tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusOpen, domain.TicketStatusInProgress); !errors.Is(err, repository.ErrStaleWrite) {
		t.Fatalf("expected stale write, got %v", err)
	}
	stored, err := tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s", stored.Status)
	}
}
