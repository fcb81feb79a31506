package repository

import (
	"context"
	"time"

	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageLogRepository struct {
	db *pgxpool.Pool
}

func NewMessageLogRepository(db *pgxpool.Pool) *MessageLogRepository {
	return &MessageLogRepository{db: db}
}

func (r *MessageLogRepository) Insert(ctx context.Context, entry *entities.MessageLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO message_logs (id, user_id, client_id, status_key, template, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, entry.ID, entry.UserID, entry.ClientID, string(entry.StatusKey), entry.Template,
		string(entry.Status), entry.Error).Scan(&entry.CreatedAt)
}

// HasSent reports whether a successful delivery for (client, stage) was logged in [from, to).
func (r *MessageLogRepository) HasSent(ctx context.Context, clientID uuid.UUID, stage entities.Stage, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM message_logs
			WHERE client_id = $1 AND status_key = $2 AND status = $3
			  AND created_at >= $4 AND created_at < $5
		)
	`, clientID, string(stage), string(entities.DeliverySent), from, to).Scan(&exists)
	return exists, err
}
