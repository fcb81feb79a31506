package entities

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile is the public listing shape returned to super admins
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the per-master configuration row. Plan and trial state are
// maintained elsewhere and only read here.
type Profile struct {
	UserID        uuid.UUID    `json:"user_id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Limits        MasterLimits `json:"limits"`
	PlanKind      string       `json:"plan_kind"`
	PlanExpiresAt *time.Time   `json:"plan_expires_at,omitempty"`
	IsTrial       bool         `json:"is_trial"`
	CreatedAt     time.Time    `json:"created_at"`
}

type Reseller struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  *uuid.UUID     `json:"tenant_id,omitempty"`
	OwnerID   uuid.UUID      `json:"owner_id"`          // master the reseller works under
	UserID    *uuid.UUID     `json:"user_id,omitempty"` // reseller's own login, if any
	Name      string         `json:"name"`
	Limits    ResellerLimits `json:"limits"`
	CreatedBy *uuid.UUID     `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
