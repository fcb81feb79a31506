package repository

import (
	"context"
	"fmt"

	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type ResellerRepository struct {
	db *pgxpool.Pool
}

func NewResellerRepository(db *pgxpool.Pool) *ResellerRepository {
	return &ResellerRepository{db: db}
}

// GetByUserID finds the reseller record whose login is userID. nil, nil when absent.
func (r *ResellerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Reseller, error) {
	var res entities.Reseller
	var limits []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, owner_id, user_id, name, limits, created_by, created_at
		FROM resellers WHERE user_id = $1
		ORDER BY created_at ASC LIMIT 1
	`, userID).Scan(&res.ID, &res.TenantID, &res.OwnerID, &res.UserID, &res.Name, &limits, &res.CreatedBy, &res.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reseller: %w", err)
	}
	res.Limits, err = entities.ParseResellerLimits(limits)
	if err != nil {
		log.Warn().Err(err).Str("reseller_id", res.ID.String()).Msg("reseller limits unreadable, using defaults")
	}
	return &res, nil
}

func (r *ResellerRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM resellers WHERE owner_id = $1", ownerID).Scan(&count)
	return count, err
}
