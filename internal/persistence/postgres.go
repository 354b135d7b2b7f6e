package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/config"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
)

const applicationName = "helpdesk-intake"

// Postgres is the production store: a pgx pool and the repositories built on it.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies the connection and, when configured, applies the embedded
// migrations before returning.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres DSN is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))

	if cfg.RunMigrations {
		if err := RunMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Postgres{pool: pool}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return errors.New("postgres pool not initialized")
	}
	return p.pool.Ping(ctx)
}

// Pool exposes the underlying pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Profiles returns the profile store.
func (p *Postgres) Profiles() repository.ProfileRepository {
	return repository.NewProfileRepository(p.pool)
}

// Credentials returns the credential store.
func (p *Postgres) Credentials() repository.CredentialRepository {
	return repository.NewCredentialRepository(p.pool)
}

// Tickets returns the ticket store.
func (p *Postgres) Tickets() repository.TicketRepository {
	return repository.NewTicketRepository(p.pool)
}

// History returns the ticket audit store.
func (p *Postgres) History() repository.TicketHistoryRepository {
	return repository.NewTicketHistoryRepository(p.pool)
}

// Claims returns the intake claim store.
func (p *Postgres) Claims() repository.ClaimRepository {
	return repository.NewClaimRepository(p.pool)
}
