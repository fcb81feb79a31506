package repository

import (
	"context"

	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry *entities.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	var details []byte
	if len(entry.Details) > 0 {
		details = entry.Details
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, target_type, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.ActorID, entry.Action, entry.TargetType, entry.TargetID, details, entry.CreatedAt)
	return err
}
