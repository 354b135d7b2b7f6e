package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
)

type profileStore struct {
	db *sql.DB
}

const profileColumns = `id, email, display_name, role, created_at, updated_at`

func (s *profileStore) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return s.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
}

func (s *profileStore) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return s.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = ?`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (s *profileStore) fetchSingle(ctx context.Context, query string, arg any) (*domain.Profile, error) {
	var (
		profile   domain.Profile
		createdAt int64
		updatedAt int64
	)
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&profile.ID,
		&profile.Email,
		&profile.DisplayName,
		&profile.Role,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	profile.CreatedAt = fromMillis(createdAt)
	profile.UpdatedAt = fromMillis(updatedAt)
	return &profile, nil
}

type credentialStore struct {
	db *sql.DB
}

func (s *credentialStore) UpdatePasswordHash(ctx context.Context, profileID, hash string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO credentials (profile_id, password_hash, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (profile_id) DO UPDATE SET
            password_hash = excluded.password_hash,
            updated_at = excluded.updated_at`,
		profileID, hash, toMillis(time.Now()))
	return err
}

func (s *credentialStore) GetPasswordHash(ctx context.Context, profileID string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM credentials WHERE profile_id = ?`, profileID).Scan(&hash)
	if err != nil {
		return "", mapNoRows(err)
	}
	return hash, nil
}

// PasswordHash returns the stored hash for profileID.
func (s *Store) PasswordHash(ctx context.Context, profileID string) (string, error) {
	return s.Credentials().GetPasswordHash(ctx, profileID)
}
