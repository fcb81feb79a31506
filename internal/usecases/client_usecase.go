package usecases

import (
	"context"
	"strings"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxRenewDays = 3650

type CreateClientInput struct {
	Name           string
	Phone          string
	Plan           string
	ExpirationDate time.Time
	Value          decimal.Decimal
}

type ClientUsecase struct {
	clients ClientStore
	quota   *QuotaEnforcer
	audit   *AuditRecorder
	loc     *time.Location
	now     func() time.Time
}

func NewClientUsecase(clients ClientStore, quota *QuotaEnforcer, audit *AuditRecorder, loc *time.Location) *ClientUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &ClientUsecase{clients: clients, quota: quota, audit: audit, loc: loc, now: time.Now}
}

// Create inserts a client for the caller. Resellers create under their
// master with their own reseller id.
func (uc *ClientUsecase) Create(ctx context.Context, callerID uuid.UUID, in CreateClientInput) (*entities.Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperrors.Validation("nome é obrigatório")
	}
	if in.ExpirationDate.IsZero() {
		return nil, apperrors.Validation("data de vencimento é obrigatória")
	}
	if in.Value.IsNegative() {
		return nil, apperrors.Validation("valor não pode ser negativo")
	}

	actor, err := uc.quota.ResolveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	status, err := uc.quota.Check(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !status.CanCreateClient {
		return nil, apperrors.QuotaExceeded(strings.Join(status.Messages, "; "))
	}

	client := &entities.Client{
		UserID:         callerID,
		Name:           in.Name,
		Plan:           strings.TrimSpace(in.Plan),
		ExpirationDate: calendarDay(in.ExpirationDate),
		Value:          in.Value,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		client.Phone = &phone
	}
	if actor.IsReseller() {
		client.UserID = actor.Reseller.OwnerID
		client.ResellerID = &actor.Reseller.ID
	}

	if err := uc.clients.CreateWithinLimit(ctx, client, status.MaxClients); err != nil {
		return nil, err
	}
	uc.audit.Record(callerID, "create_client", strPtr("client"), strPtr(client.ID.String()), nil)
	return client, nil
}

// Renew pushes the expiration forward by days, counted from the later of
// today and the current expiration, or sets it to until when given.
func (uc *ClientUsecase) Renew(ctx context.Context, callerID, clientID uuid.UUID, days int, until *time.Time) (*entities.Client, error) {
	client, err := uc.manageable(ctx, callerID, clientID)
	if err != nil {
		return nil, err
	}

	var next time.Time
	switch {
	case until != nil:
		next = calendarDay(*until)
	case days > 0 && days <= maxRenewDays:
		base := calendarDay(uc.now().In(uc.loc))
		if current := calendarDay(client.ExpirationDate); current.After(base) {
			base = current
		}
		next = base.AddDate(0, 0, days)
	default:
		return nil, apperrors.Validation("informe dias (1 a 3650) ou a nova data de vencimento")
	}

	if err := uc.clients.UpdateExpiration(ctx, client.ID, next); err != nil {
		return nil, err
	}
	client.ExpirationDate = next
	uc.audit.Record(callerID, "renew_client", strPtr("client"), strPtr(client.ID.String()),
		map[string]string{"expiration_date": FormatDate(next)})
	return client, nil
}

func (uc *ClientUsecase) SetSuspended(ctx context.Context, callerID, clientID uuid.UUID, suspended bool) (*entities.Client, error) {
	client, err := uc.manageable(ctx, callerID, clientID)
	if err != nil {
		return nil, err
	}
	if err := uc.clients.SetSuspended(ctx, client.ID, suspended); err != nil {
		return nil, err
	}
	client.IsSuspended = suspended
	uc.audit.Record(callerID, "suspend_client", strPtr("client"), strPtr(client.ID.String()),
		map[string]bool{"suspended": suspended})
	return client, nil
}

// manageable loads the client and checks the caller owns it directly or
// through its reseller record.
func (uc *ClientUsecase) manageable(ctx context.Context, callerID, clientID uuid.UUID) (*entities.Client, error) {
	client, err := uc.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.UserID == callerID {
		return client, nil
	}
	actor, err := uc.quota.ResolveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role == entities.RoleSuperAdmin {
		return client, nil
	}
	if actor.IsReseller() && client.ResellerID != nil && *client.ResellerID == actor.Reseller.ID {
		return client, nil
	}
	return nil, apperrors.NotFound("cliente não encontrado")
}
