package identity

import (
	"strings"

	"github.com/waterbill/backend/internal/domain/shared"
)

// Role is the staff or customer role attached to a user
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAdmin       Role = "ADMIN"
	RoleMeterReader Role = "METER_READER"
	RoleTreasurer   Role = "TREASURER"
	RoleCustomer    Role = "CUSTOMER"
	// RoleAnonymous is the role of unauthenticated public callers.
	// It is never stored on a user.
	RoleAnonymous Role = "ANONYMOUS"
)

// AllRoles returns every role that can be assigned to a user
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleMeterReader, RoleTreasurer, RoleCustomer}
}

// IsValid reports whether r can be assigned to a user
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMeterReader, RoleTreasurer, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether r is one of the provider's staff roles
func (r Role) IsStaff() bool {
	return r.IsValid() && r != RoleCustomer
}

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name, case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Unknown role: "+s)
	}
	return r, nil
}
