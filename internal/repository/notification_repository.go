package repository

import (
	"context"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *entities.WhatsAppNotification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO whatsapp_notifications (id, user_id, instance_id, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, n.ID, n.UserID, n.InstanceID, n.Title, n.Message, []byte(n.Metadata)).Scan(&n.CreatedAt)
}

// ListByUser returns the latest alerts first, at most limit rows.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entities.WhatsAppNotification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, instance_id, title, message, metadata, is_read, created_at
		FROM whatsapp_notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []entities.WhatsAppNotification{}
	for rows.Next() {
		var n entities.WhatsAppNotification
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.InstanceID, &n.Title, &n.Message, &metadata, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Metadata = metadata
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE whatsapp_notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("notificação não encontrada")
	}
	return nil
}
