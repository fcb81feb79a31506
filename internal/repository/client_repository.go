package repository

import (
	"context"
	"fmt"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, user_id, reseller_id, name, phone, plan, expiration_date, is_suspended, value, created_at, updated_at`

type ClientRepository struct {
	db *pgxpool.Pool
}

func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{db: db}
}

func scanClient(row pgx.Row) (*entities.Client, error) {
	var c entities.Client
	err := row.Scan(&c.ID, &c.UserID, &c.ResellerID, &c.Name, &c.Phone, &c.Plan,
		&c.ExpirationDate, &c.IsSuspended, &c.Value, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) CountByReseller(ctx context.Context, resellerID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients WHERE reseller_id = $1", resellerID).Scan(&count)
	return count, err
}

// CountDirect counts clients owned by userID that are not assigned to a reseller.
func (r *ClientRepository) CountDirect(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM clients WHERE user_id = $1 AND reseller_id IS NULL", userID).Scan(&count)
	return count, err
}

// CreateWithinLimit inserts c unless the owning reseller (or the owner, for
// direct clients) already holds limit clients. The limiting row is locked for
// the duration of the transaction.
func (r *ClientRepository) CreateWithinLimit(ctx context.Context, c *entities.Client, limit int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create client: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	if c.ResellerID != nil {
		if _, err := tx.Exec(ctx, "SELECT 1 FROM resellers WHERE id = $1 FOR UPDATE", *c.ResellerID); err != nil {
			return fmt.Errorf("lock reseller: %w", err)
		}
		err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM clients WHERE reseller_id = $1", *c.ResellerID).Scan(&count)
	} else {
		if _, err := tx.Exec(ctx, "SELECT 1 FROM profiles WHERE user_id = $1 FOR UPDATE", c.UserID); err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}
		err = tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM clients WHERE user_id = $1 AND reseller_id IS NULL", c.UserID).Scan(&count)
	}
	if err != nil {
		return fmt.Errorf("count clients: %w", err)
	}
	if limit > 0 && count >= limit {
		return apperrors.QuotaExceeded(fmt.Sprintf("limite de clientes atingido (%d/%d)", count, limit))
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO clients (id, user_id, reseller_id, name, phone, plan, expiration_date, is_suspended, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, c.ID, c.UserID, c.ResellerID, c.Name, c.Phone, c.Plan, c.ExpirationDate, c.IsSuspended, c.Value).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return tx.Commit(ctx)
}

// GetByID returns apperrors.ErrNotFound when absent.
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = $1", id))
	if isNoRows(err) {
		return nil, apperrors.NotFound("cliente não encontrado")
	}
	return c, err
}

func (r *ClientRepository) UpdateExpiration(ctx context.Context, id uuid.UUID, expiration time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE clients SET expiration_date = $1, updated_at = NOW() WHERE id = $2", expiration, id)
	return err
}

func (r *ClientRepository) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	_, err := r.db.Exec(ctx,
		"UPDATE clients SET is_suspended = $1, updated_at = NOW() WHERE id = $2", suspended, id)
	return err
}

// ListDispatchable returns the owner's unsuspended clients that have a phone.
// Reseller-assigned clients are included only when includeResellers is set.
func (r *ClientRepository) ListDispatchable(ctx context.Context, ownerID uuid.UUID, includeResellers bool) ([]entities.Client, error) {
	query := "SELECT " + clientColumns + ` FROM clients
		WHERE user_id = $1 AND is_suspended = FALSE AND phone IS NOT NULL AND phone <> ''`
	if !includeResellers {
		query += " AND reseller_id IS NULL"
	}
	query += " ORDER BY expiration_date ASC"

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []entities.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}
