package repository

import (
	"context"
	"fmt"

	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID returns nil, nil when the user has no profile row.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Profile, error) {
	var p entities.Profile
	var limits []byte
	err := r.db.QueryRow(ctx, `
		SELECT user_id, name, email, limits, plan_kind, plan_expires_at, is_trial, created_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Name, &p.Email, &limits, &p.PlanKind, &p.PlanExpiresAt, &p.IsTrial, &p.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Limits, err = entities.ParseMasterLimits(limits)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("profile limits unreadable, using defaults")
	}
	return &p, nil
}
