package entities

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleReseller   Role = "reseller"
	RolePanelAdmin Role = "panel_admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRanks = map[Role]int{
	RoleUser:       0,
	RoleReseller:   1,
	RolePanelAdmin: 2,
	RoleSuperAdmin: 3,
}

// Rank returns the position of r in the role order, or -1 for unknown roles.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// IsPrivileged reports whether r may create accounts at all.
func (r Role) IsPrivileged() bool {
	return r == RolePanelAdmin || r == RoleSuperAdmin
}

type RoleAssignment struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      Role       `json:"role"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// HighestRole picks the highest ranked active assignment. ok is false when
// no active assignment exists.
func HighestRole(assignments []RoleAssignment) (RoleAssignment, bool) {
	var best RoleAssignment
	found := false
	for _, a := range assignments {
		if !a.IsActive || !a.Role.Valid() {
			continue
		}
		if !found || a.Role.Rank() > best.Role.Rank() {
			best = a
			found = true
		}
	}
	return best, found
}
