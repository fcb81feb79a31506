package usecases

import (
	"context"
	"fmt"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
)

// Actor is an authenticated user resolved to its hierarchy position.
type Actor struct {
	UserID   uuid.UUID
	Role     entities.Role
	TenantID *uuid.UUID
	Reseller *entities.Reseller
	Profile  *entities.Profile
}

func (a *Actor) IsReseller() bool {
	return a.Role == entities.RoleReseller && a.Reseller != nil
}

func (a *Actor) IsMaster() bool {
	return a.Role == entities.RolePanelAdmin
}

// QuotaStatus is the current-vs-allowed snapshot for an actor. Limits of 0
// mean unrestricted.
type QuotaStatus struct {
	Role              entities.Role `json:"role"`
	CanCreateClient   bool          `json:"can_create_client"`
	CanCreateReseller bool          `json:"can_create_reseller"`
	Messages          []string      `json:"messages"`
	CurrentClients    int           `json:"current_clients"`
	MaxClients        int           `json:"max_clients"`
	CurrentResellers  int           `json:"current_resellers"`
	MaxResellers      int           `json:"max_resellers"`
}

// MessageQuota is a reseller's monthly send allowance.
type MessageQuota struct {
	Sent    int  `json:"sent"`
	Limit   int  `json:"limit"`
	Allowed bool `json:"allowed"`
}

type QuotaEnforcer struct {
	roles     RoleStore
	profiles  ProfileStore
	resellers ResellerStore
	clients   ClientStore
	usage     UsageStore
	now       func() time.Time
}

func NewQuotaEnforcer(roles RoleStore, profiles ProfileStore, resellers ResellerStore, clients ClientStore, usage UsageStore) *QuotaEnforcer {
	return &QuotaEnforcer{
		roles:     roles,
		profiles:  profiles,
		resellers: resellers,
		clients:   clients,
		usage:     usage,
		now:       time.Now,
	}
}

// ResolveActor loads the caller's highest active role and, depending on it,
// its reseller record or master profile. Users without an active role
// resolve to entities.RoleUser.
func (q *QuotaEnforcer) ResolveActor(ctx context.Context, userID uuid.UUID) (*Actor, error) {
	assignments, err := q.roles.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	actor := &Actor{UserID: userID, Role: entities.RoleUser}
	if best, ok := entities.HighestRole(assignments); ok {
		actor.Role = best.Role
		actor.TenantID = best.TenantID
	}

	switch actor.Role {
	case entities.RoleReseller:
		reseller, err := q.resellers.GetByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load reseller: %w", err)
		}
		actor.Reseller = reseller
	case entities.RolePanelAdmin:
		profile, err := q.profiles.GetByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		actor.Profile = profile
	}
	return actor, nil
}

// Check computes what the actor may still create. The result is advisory;
// the creating transaction re-checks the limit under a row lock.
func (q *QuotaEnforcer) Check(ctx context.Context, actor *Actor) (*QuotaStatus, error) {
	status := &QuotaStatus{Role: actor.Role, Messages: []string{}}

	switch {
	case actor.IsReseller():
		limits := actor.Reseller.Limits.WithDefaults()
		count, err := q.clients.CountByReseller(ctx, actor.Reseller.ID)
		if err != nil {
			return nil, fmt.Errorf("count reseller clients: %w", err)
		}
		status.CurrentClients = count
		status.MaxClients = limits.MaxClients
		status.CanCreateClient = count < limits.MaxClients
		if !status.CanCreateClient {
			status.Messages = append(status.Messages,
				fmt.Sprintf("Limite de clientes atingido (%d/%d)", count, limits.MaxClients))
		}
		status.Messages = append(status.Messages, "Revendedores não podem criar sub-revendedores")

	case actor.IsMaster():
		limits := entities.MasterLimits{}.WithDefaults()
		if actor.Profile != nil {
			limits = actor.Profile.Limits.WithDefaults()
		}
		clients, err := q.clients.CountDirect(ctx, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("count direct clients: %w", err)
		}
		resellers, err := q.resellers.CountByOwner(ctx, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("count resellers: %w", err)
		}
		status.CurrentClients = clients
		status.MaxClients = limits.MaxClients
		status.CurrentResellers = resellers
		status.MaxResellers = limits.MaxResellers
		status.CanCreateClient = clients < limits.MaxClients
		status.CanCreateReseller = resellers < limits.MaxResellers
		if !status.CanCreateClient {
			status.Messages = append(status.Messages,
				fmt.Sprintf("Limite de clientes atingido (%d/%d)", clients, limits.MaxClients))
		}
		if !status.CanCreateReseller {
			status.Messages = append(status.Messages,
				fmt.Sprintf("Limite de revendedores atingido (%d/%d)", resellers, limits.MaxResellers))
		}

	default:
		status.CanCreateClient = true
		status.CanCreateReseller = true
	}
	return status, nil
}

// CheckMessages reports the monthly send allowance. Only resellers are capped.
func (q *QuotaEnforcer) CheckMessages(ctx context.Context, actor *Actor) (*MessageQuota, error) {
	if !actor.IsReseller() {
		return &MessageQuota{Allowed: true}, nil
	}
	limit := actor.Reseller.Limits.WithDefaults().MaxMessagesMonth
	sent, err := q.usage.MonthSent(ctx, actor.UserID, q.now())
	if err != nil {
		return nil, fmt.Errorf("month usage: %w", err)
	}
	return &MessageQuota{Sent: sent, Limit: limit, Allowed: sent < limit}, nil
}

// RequireMessages fails with a quota error once the monthly cap is reached.
func (q *QuotaEnforcer) RequireMessages(ctx context.Context, actor *Actor) error {
	mq, err := q.CheckMessages(ctx, actor)
	if err != nil {
		return err
	}
	if !mq.Allowed {
		return apperrors.QuotaExceeded(fmt.Sprintf("limite mensal de mensagens atingido (%d/%d)", mq.Sent, mq.Limit))
	}
	return nil
}
