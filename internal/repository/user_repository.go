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

type UserRepository struct {
	db *pgxpool.Pool
}

// NewAccount describes a login plus its first role assignment.
type NewAccount struct {
	Email        string
	PasswordHash string
	Name         string
	Role         entities.Role
	TenantID     *uuid.UUID
	Reseller     *NewReseller
}

// NewReseller is created alongside a reseller role. MaxForOwner > 0 makes the
// insert fail with ErrQuotaExceeded once the owner already has that many.
type NewReseller struct {
	OwnerID     uuid.UUID
	CreatedBy   *uuid.UUID
	Limits      entities.ResellerLimits
	MaxForOwner int
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateAccount inserts the user, profile, role and optional reseller in one transaction.
func (r *UserRepository) CreateAccount(ctx context.Context, acct NewAccount) (*entities.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create account: %w", err)
	}
	defer tx.Rollback(ctx)

	user := entities.User{ID: uuid.New(), Email: acct.Email, PasswordHash: acct.PasswordHash, Name: acct.Name}
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, user.ID, user.Email, user.PasswordHash, user.Name).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("e-mail já cadastrado")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO profiles (user_id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, user.ID, user.Name, user.Email); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	if err := insertRole(ctx, tx, user.ID, acct.Role, acct.TenantID); err != nil {
		return nil, err
	}

	if acct.Reseller != nil {
		if err := insertReseller(ctx, tx, user.ID, user.Name, acct.TenantID, acct.Reseller); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create account: %w", err)
	}
	return &user, nil
}

// AssignFirstRole grants a role to a user that has none yet.
func (r *UserRepository) AssignFirstRole(ctx context.Context, userID uuid.UUID, role entities.Role, reseller *NewReseller) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assign role: %w", err)
	}
	defer tx.Rollback(ctx)

	var name, email string
	err = tx.QueryRow(ctx, "SELECT name, email FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&name, &email)
	if isNoRows(err) {
		return apperrors.NotFound("usuário não encontrado")
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	var existing int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM user_roles WHERE user_id = $1", userID).Scan(&existing); err != nil {
		return fmt.Errorf("count roles: %w", err)
	}
	if existing > 0 {
		return apperrors.Validation("usuário já possui um papel atribuído")
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO profiles (user_id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, name, email); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if err := insertRole(ctx, tx, userID, role, nil); err != nil {
		return err
	}
	if reseller != nil {
		if err := insertReseller(ctx, tx, userID, name, nil, reseller); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertRole(ctx context.Context, tx pgx.Tx, userID uuid.UUID, role entities.Role, tenantID *uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_roles (id, user_id, role, tenant_id, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, uuid.New(), userID, string(role), tenantID)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func insertReseller(ctx context.Context, tx pgx.Tx, userID uuid.UUID, name string, tenantID *uuid.UUID, seed *NewReseller) error {
	if seed.MaxForOwner > 0 {
		// Serializes concurrent reseller creation for the same owner.
		if _, err := tx.Exec(ctx, "SELECT 1 FROM profiles WHERE user_id = $1 FOR UPDATE", seed.OwnerID); err != nil {
			return fmt.Errorf("lock owner profile: %w", err)
		}
		var count int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM resellers WHERE owner_id = $1", seed.OwnerID).Scan(&count); err != nil {
			return fmt.Errorf("count resellers: %w", err)
		}
		if count >= seed.MaxForOwner {
			return apperrors.QuotaExceeded(fmt.Sprintf("limite de revendedores atingido (%d/%d)", count, seed.MaxForOwner))
		}
	}
	limits, err := marshalJSON(seed.Limits.WithDefaults())
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO resellers (id, tenant_id, owner_id, user_id, name, limits, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), tenantID, seed.OwnerID, userID, name, limits, seed.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert reseller: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.QueryRow(ctx,
		"SELECT id, email, password_hash, name, created_at FROM users WHERE email = $1",
		email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt)

	if isNoRows(err) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListProfiles returns every account, newest first.
func (r *UserRepository) ListProfiles(ctx context.Context) ([]entities.UserProfile, error) {
	rows, err := r.db.Query(ctx, "SELECT id, email, name, created_at FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []entities.UserProfile{}
	for rows.Next() {
		var p entities.UserProfile
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
