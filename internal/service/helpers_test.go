package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "helpdesk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedIdentity(t *testing.T, store *sqlite.Store, id string, role domain.Role) *domain.Identity {
	t.Helper()
	profile := &domain.Profile{ID: id, Email: id + "@example.com", DisplayName: id, Role: role}
	if err := store.UpsertProfile(context.Background(), profile); err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
	return &domain.Identity{ID: id, Role: role, Method: domain.AuthMethodSession}
}

func newGuard() *auth.Guard {
	return auth.NewGuard(nil, nil)
}
