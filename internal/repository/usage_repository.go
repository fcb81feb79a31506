package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsageRepository struct {
	db *pgxpool.Pool
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

// IncrementSent increments messages_sent for the calendar day of at
func (r *UsageRepository) IncrementSent(ctx context.Context, userID uuid.UUID, at time.Time) error {
	day := at.Format("2006-01-02")
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_usage (user_id, date, messages_sent)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, date)
		DO UPDATE SET messages_sent = message_usage.messages_sent + 1
	`, userID, day)
	return err
}

// MonthSent returns the messages sent during the calendar month of at
func (r *UsageRepository) MonthSent(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	firstOfMonth := at.Format("2006-01") + "-01"
	var sent int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(messages_sent), 0)
		FROM message_usage WHERE user_id = $1 AND date >= $2
	`, userID, firstOfMonth).Scan(&sent)
	return sent, err
}
