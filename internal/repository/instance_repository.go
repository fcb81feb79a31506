package repository

import (
	"context"
	"fmt"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const instanceColumns = `id, user_id, instance_key, token, is_active, connection_status, created_at, updated_at`

type InstanceRepository struct {
	db *pgxpool.Pool
}

func NewInstanceRepository(db *pgxpool.Pool) *InstanceRepository {
	return &InstanceRepository{db: db}
}

func scanInstance(row pgx.Row) (*entities.MessagingInstance, error) {
	var inst entities.MessagingInstance
	var status *string
	err := row.Scan(&inst.ID, &inst.UserID, &inst.InstanceKey, &inst.Token, &inst.IsActive,
		&status, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if status != nil {
		cs := entities.ConnectionStatus(*status)
		inst.ConnectionStatus = &cs
	}
	return &inst, nil
}

func (r *InstanceRepository) ListActive(ctx context.Context) ([]entities.MessagingInstance, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+instanceColumns+" FROM whatsapp_instances WHERE is_active = TRUE ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := []entities.MessagingInstance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

// GetByKey returns nil, nil for unknown instance keys.
func (r *InstanceRepository) GetByKey(ctx context.Context, key string) (*entities.MessagingInstance, error) {
	inst, err := scanInstance(r.db.QueryRow(ctx,
		"SELECT "+instanceColumns+" FROM whatsapp_instances WHERE instance_key = $1", key))
	if isNoRows(err) {
		return nil, nil
	}
	return inst, err
}

// GetByUserID returns nil, nil when the user has not linked an instance.
func (r *InstanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.MessagingInstance, error) {
	inst, err := scanInstance(r.db.QueryRow(ctx,
		"SELECT "+instanceColumns+" FROM whatsapp_instances WHERE user_id = $1", userID))
	if isNoRows(err) {
		return nil, nil
	}
	return inst, err
}

func (r *InstanceRepository) UpdateConnectionStatus(ctx context.Context, id uuid.UUID, status entities.ConnectionStatus) error {
	_, err := r.db.Exec(ctx,
		"UPDATE whatsapp_instances SET connection_status = $1, updated_at = NOW() WHERE id = $2", string(status), id)
	return err
}

// Link creates or replaces the user's instance credentials.
func (r *InstanceRepository) Link(ctx context.Context, userID uuid.UUID, key, token string) (*entities.MessagingInstance, error) {
	inst, err := scanInstance(r.db.QueryRow(ctx, `
		INSERT INTO whatsapp_instances (id, user_id, instance_key, token, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (user_id) DO UPDATE
		SET instance_key = EXCLUDED.instance_key, token = EXCLUDED.token, is_active = TRUE,
		    connection_status = NULL, updated_at = NOW()
		RETURNING `+instanceColumns, uuid.New(), userID, key, token))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("instância já vinculada a outro usuário")
		}
		return nil, fmt.Errorf("link instance: %w", err)
	}
	return inst, nil
}

func (r *InstanceRepository) Unlink(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM whatsapp_instances WHERE user_id = $1", userID)
	return err
}
