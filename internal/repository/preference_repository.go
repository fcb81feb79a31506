package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferenceRepository stores per-user UI state such as dismissed tips.
type PreferenceRepository struct {
	db *pgxpool.Pool
}

func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns nil when the key was never set
func (r *PreferenceRepository) Get(ctx context.Context, userID uuid.UUID, key string) (json.RawMessage, error) {
	var value []byte
	err := r.db.QueryRow(ctx,
		"SELECT value FROM user_preferences WHERE user_id = $1 AND key = $2", userID, key).Scan(&value)
	if isNoRows(err) {
		return nil, nil // Not found is not strictly an error
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *PreferenceRepository) Set(ctx context.Context, userID uuid.UUID, key string, value json.RawMessage) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_preferences (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, userID, key, []byte(value))
	return err
}
