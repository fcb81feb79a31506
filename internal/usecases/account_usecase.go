package usecases

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const minPasswordLength = 6

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     entities.Role
	TenantID *uuid.UUID
}

// AccountUsecase creates accounts under the role hierarchy.
type AccountUsecase struct {
	users   UserStore
	tenants TenantStore
	quota   *QuotaEnforcer
	audit   *AuditRecorder
}

func NewAccountUsecase(users UserStore, tenants TenantStore, quota *QuotaEnforcer, audit *AuditRecorder) *AccountUsecase {
	return &AccountUsecase{users: users, tenants: tenants, quota: quota, audit: audit}
}

func (uc *AccountUsecase) CreateUser(ctx context.Context, callerID uuid.UUID, in CreateUserInput) (*entities.User, error) {
	actor, err := uc.quota.ResolveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsPrivileged() {
		return nil, apperrors.Forbidden("apenas administradores podem criar usuários")
	}

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" || in.Role == "" {
		return nil, apperrors.Validation("e-mail, senha, nome e papel são obrigatórios")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperrors.Validation("e-mail inválido")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation("a senha deve ter pelo menos 6 caracteres")
	}
	if err := ValidateRoleCreation(actor.Role, in.Role); err != nil {
		return nil, err
	}

	tenantID := ResolveTenant(actor.Role, actor.TenantID, in.TenantID)
	if tenantID != nil && actor.Role == entities.RoleSuperAdmin {
		ok, err := uc.tenants.Exists(ctx, *tenantID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.Validation("tenant não encontrado")
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	acct := repository.NewAccount{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         in.Role,
		TenantID:     tenantID,
	}
	if in.Role == entities.RoleReseller {
		seed := &repository.NewReseller{
			OwnerID:   callerID,
			CreatedBy: &callerID,
			Limits:    entities.DefaultResellerLimits(),
		}
		if actor.IsMaster() {
			limits := entities.MasterLimits{}.WithDefaults()
			if actor.Profile != nil {
				limits = actor.Profile.Limits.WithDefaults()
			}
			seed.MaxForOwner = limits.MaxResellers
		}
		acct.Reseller = seed
	}

	user, err := uc.users.CreateAccount(ctx, acct)
	if errors.Is(err, apperrors.ErrConflict) {
		// create-user reports every bad input as 400
		return nil, apperrors.Validation(apperrors.Message(err, "e-mail já cadastrado"))
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("actor_id", callerID.String()).Str("user_id", user.ID.String()).
		Str("role", string(in.Role)).Msg("User created")
	uc.audit.Record(callerID, "create_user", strPtr("user"), strPtr(user.ID.String()), map[string]any{
		"email":     user.Email,
		"role":      in.Role,
		"tenant_id": tenantID,
	})
	return user, nil
}

// SelfRegister grants the first role to a freshly signed up user. A self
// registered reseller owns its own reseller row.
func (uc *AccountUsecase) SelfRegister(ctx context.Context, userID uuid.UUID, role entities.Role) error {
	var seed *repository.NewReseller
	switch role {
	case entities.RolePanelAdmin:
	case entities.RoleReseller:
		seed = &repository.NewReseller{OwnerID: userID, CreatedBy: &userID, Limits: entities.DefaultResellerLimits()}
	default:
		return apperrors.Validation("papel deve ser panel_admin ou reseller")
	}

	if err := uc.users.AssignFirstRole(ctx, userID, role, seed); err != nil {
		return err
	}
	uc.audit.Record(userID, "self_register", strPtr("user"), strPtr(userID.String()), map[string]any{"role": role})
	return nil
}

func (uc *AccountUsecase) ListProfiles(ctx context.Context, callerID uuid.UUID) ([]entities.UserProfile, error) {
	actor, err := uc.quota.ResolveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role != entities.RoleSuperAdmin {
		return nil, apperrors.Forbidden("apenas super administradores podem listar usuários")
	}
	return uc.users.ListProfiles(ctx)
}
