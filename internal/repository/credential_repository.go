package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialRepository stores password hashes for profiles.
type CredentialRepository interface {
	UpdatePasswordHash(ctx context.Context, profileID, hash string) error
	GetPasswordHash(ctx context.Context, profileID string) (string, error)
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) UpdatePasswordHash(ctx context.Context, profileID, hash string) error {
	const query = `
        INSERT INTO credentials (profile_id, password_hash, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (profile_id) DO UPDATE SET password_hash=EXCLUDED.password_hash, updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query, profileID, hash)
	return err
}

func (r *credentialRepository) GetPasswordHash(ctx context.Context, profileID string) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `SELECT password_hash FROM credentials WHERE profile_id=$1`, profileID).Scan(&hash)
	if err != nil {
		return "", mapNoRows(err)
	}
	return hash, nil
}
