package repository

import (
	"context"

	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Get returns nil, nil when the user has no override for stage.
func (r *TemplateRepository) Get(ctx context.Context, userID uuid.UUID, stage entities.Stage) (*entities.MessageTemplate, error) {
	var t entities.MessageTemplate
	var key string
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, status_key, template, updated_at
		FROM message_templates WHERE user_id = $1 AND status_key = $2
	`, userID, string(stage)).Scan(&t.ID, &t.UserID, &key, &t.Template, &t.UpdatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.StatusKey = entities.Stage(key)
	return &t, nil
}

func (r *TemplateRepository) Upsert(ctx context.Context, userID uuid.UUID, stage entities.Stage, text string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_templates (id, user_id, status_key, template, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, status_key) DO UPDATE SET template = EXCLUDED.template, updated_at = NOW()
	`, uuid.New(), userID, string(stage), text)
	return err
}

func (r *TemplateRepository) Delete(ctx context.Context, userID uuid.UUID, stage entities.Stage) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM message_templates WHERE user_id = $1 AND status_key = $2", userID, string(stage))
	return err
}

func (r *TemplateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.MessageTemplate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, status_key, template, updated_at
		FROM message_templates WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []entities.MessageTemplate{}
	for rows.Next() {
		var t entities.MessageTemplate
		var key string
		if err := rows.Scan(&t.ID, &t.UserID, &key, &t.Template, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.StatusKey = entities.Stage(key)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
