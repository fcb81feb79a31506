package repository

import (
	"context"

	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepository struct {
	db *pgxpool.Pool
}

func NewRoleRepository(db *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{db: db}
}

// ListActive returns the user's active role rows.
func (r *RoleRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]entities.RoleAssignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, role, tenant_id, is_active, created_at
		FROM user_roles WHERE user_id = $1 AND is_active = TRUE
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []entities.RoleAssignment{}
	for rows.Next() {
		var a entities.RoleAssignment
		var role string
		if err := rows.Scan(&a.ID, &a.UserID, &role, &a.TenantID, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = entities.Role(role)
		roles = append(roles, a)
	}
	return roles, rows.Err()
}
