package repository

import (
	"context"
	"fmt"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLease is a single-row lock per name with an expiry, so a crashed
// holder never blocks later runs past its TTL.
type PostgresLease struct {
	db *pgxpool.Pool
}

func NewPostgresLease(db *pgxpool.Pool) *PostgresLease {
	return &PostgresLease{db: db}
}

func (l *PostgresLease) Acquire(ctx context.Context, name string, ttl time.Duration) (interfaces.LeaseHold, error) {
	holder := uuid.NewString()
	tag, err := l.db.Exec(ctx, `
		INSERT INTO dispatch_leases (name, holder, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 millisecond')
		ON CONFLICT (name) DO UPDATE
		SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at
		WHERE dispatch_leases.expires_at < NOW()
	`, name, holder, ttl.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrLeaseHeld
	}

	return &postgresHold{db: l.db, name: name, holder: holder}, nil
}

type postgresHold struct {
	db     *pgxpool.Pool
	name   string
	holder string
}

func (h *postgresHold) Renew(ctx context.Context, ttl time.Duration) error {
	tag, err := h.db.Exec(ctx, `
		UPDATE dispatch_leases
		SET expires_at = NOW() + $3 * INTERVAL '1 millisecond'
		WHERE name = $1 AND holder = $2 AND expires_at > NOW()
	`, h.name, h.holder, ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("renew lease %s: %w", h.name, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrLeaseLost
	}
	return nil
}

func (h *postgresHold) Release(ctx context.Context) error {
	_, err := h.db.Exec(ctx, "DELETE FROM dispatch_leases WHERE name = $1 AND holder = $2", h.name, h.holder)
	return err
}
