package usecases

import (
	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
)

// ValidateRoleCreation decides whether a caller holding callerRole may create
// an account with target.
func ValidateRoleCreation(callerRole, target entities.Role) error {
	if !callerRole.IsPrivileged() {
		return apperrors.Forbidden("apenas administradores podem criar usuários")
	}
	if !target.Valid() {
		return apperrors.Validation("papel inválido")
	}
	if target.Rank() >= callerRole.Rank() {
		return apperrors.Forbidden("você não pode criar um usuário com papel igual ou superior ao seu")
	}
	if callerRole == entities.RolePanelAdmin && target != entities.RoleReseller {
		return apperrors.Forbidden("administradores de painel só podem criar revendedores")
	}
	return nil
}

// ResolveTenant picks the tenant for a new account. Super admins choose
// freely; everyone else is pinned to their own tenant.
func ResolveTenant(callerRole entities.Role, callerTenant, requested *uuid.UUID) *uuid.UUID {
	if callerRole == entities.RoleSuperAdmin {
		return requested
	}
	return callerTenant
}
