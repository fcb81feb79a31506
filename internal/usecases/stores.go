package usecases

import (
	"context"
	"encoding/json"
	"time"

	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/repository"

	"github.com/google/uuid"
)

// Store interfaces are satisfied by the pgx repositories and by in-memory
// fakes in tests.

type UserStore interface {
	CreateAccount(ctx context.Context, acct repository.NewAccount) (*entities.User, error)
	AssignFirstRole(ctx context.Context, userID uuid.UUID, role entities.Role, reseller *repository.NewReseller) error
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	ListProfiles(ctx context.Context) ([]entities.UserProfile, error)
}

type RoleStore interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]entities.RoleAssignment, error)
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Profile, error)
}

type ResellerStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Reseller, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type TenantStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type ClientStore interface {
	CountByReseller(ctx context.Context, resellerID uuid.UUID) (int, error)
	CountDirect(ctx context.Context, userID uuid.UUID) (int, error)
	CreateWithinLimit(ctx context.Context, c *entities.Client, limit int) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Client, error)
	UpdateExpiration(ctx context.Context, id uuid.UUID, expiration time.Time) error
	SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error
	ListDispatchable(ctx context.Context, ownerID uuid.UUID, includeResellers bool) ([]entities.Client, error)
}

type InstanceStore interface {
	ListActive(ctx context.Context) ([]entities.MessagingInstance, error)
	GetByKey(ctx context.Context, key string) (*entities.MessagingInstance, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.MessagingInstance, error)
	UpdateConnectionStatus(ctx context.Context, id uuid.UUID, status entities.ConnectionStatus) error
	Link(ctx context.Context, userID uuid.UUID, key, token string) (*entities.MessagingInstance, error)
	Unlink(ctx context.Context, userID uuid.UUID) error
}

type TemplateStore interface {
	Get(ctx context.Context, userID uuid.UUID, stage entities.Stage) (*entities.MessageTemplate, error)
	Upsert(ctx context.Context, userID uuid.UUID, stage entities.Stage, text string) error
	Delete(ctx context.Context, userID uuid.UUID, stage entities.Stage) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.MessageTemplate, error)
}

type MessageLogStore interface {
	Insert(ctx context.Context, entry *entities.MessageLog) error
	HasSent(ctx context.Context, clientID uuid.UUID, stage entities.Stage, from, to time.Time) (bool, error)
}

type UsageStore interface {
	IncrementSent(ctx context.Context, userID uuid.UUID, at time.Time) error
	MonthSent(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)
}

type AuditStore interface {
	Insert(ctx context.Context, entry *entities.AuditEntry) error
}

type NotificationStore interface {
	Insert(ctx context.Context, n *entities.WhatsAppNotification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entities.WhatsAppNotification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type PreferenceStore interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (json.RawMessage, error)
	Set(ctx context.Context, userID uuid.UUID, key string, value json.RawMessage) error
}
