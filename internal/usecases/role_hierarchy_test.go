package usecases

import (
	"errors"
	"testing"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateRoleCreation(t *testing.T) {
	cases := []struct {
		name   string
		caller entities.Role
		target entities.Role
		want   error
	}{
		{"panel admin cannot create peer", entities.RolePanelAdmin, entities.RolePanelAdmin, apperrors.ErrForbidden},
		{"super admin creates panel admin", entities.RoleSuperAdmin, entities.RolePanelAdmin, nil},
		{"panel admin restricted to resellers", entities.RolePanelAdmin, entities.RoleUser, apperrors.ErrForbidden},
		{"panel admin creates reseller", entities.RolePanelAdmin, entities.RoleReseller, nil},
		{"super admin creates user", entities.RoleSuperAdmin, entities.RoleUser, nil},
		{"super admin cannot create super admin", entities.RoleSuperAdmin, entities.RoleSuperAdmin, apperrors.ErrForbidden},
		{"reseller is not privileged", entities.RoleReseller, entities.RoleUser, apperrors.ErrForbidden},
		{"user is not privileged", entities.RoleUser, entities.RoleUser, apperrors.ErrForbidden},
		{"unknown target role", entities.RoleSuperAdmin, "owner", apperrors.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRoleCreation(tc.caller, tc.target)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestResolveTenant(t *testing.T) {
	own := uuid.New()
	requested := uuid.New()

	assert.Equal(t, &requested, ResolveTenant(entities.RoleSuperAdmin, &own, &requested))
	assert.Nil(t, ResolveTenant(entities.RoleSuperAdmin, &own, nil))
	assert.Equal(t, &own, ResolveTenant(entities.RolePanelAdmin, &own, &requested))
	assert.Nil(t, ResolveTenant(entities.RolePanelAdmin, nil, &requested))
}
