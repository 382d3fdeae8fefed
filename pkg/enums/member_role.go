package enums

import (
	"fmt"
	"strings"
)

// MemberRole is the company-level role carried in access tokens.
type MemberRole string

const (
	MemberRoleOwner   MemberRole = "owner"
	MemberRoleManager MemberRole = "manager"
	MemberRoleCashier MemberRole = "cashier"
)

// Permission is an action gated by role.
type Permission string

const (
	PermissionCheckout      Permission = "checkout"
	PermissionManageCatalog Permission = "catalog:manage"
)

var rolePermissions = map[MemberRole]map[Permission]bool{
	MemberRoleOwner:   {PermissionCheckout: true, PermissionManageCatalog: true},
	MemberRoleManager: {PermissionCheckout: true, PermissionManageCatalog: true},
	MemberRoleCashier: {PermissionCheckout: true},
}

func (m MemberRole) String() string {
	return string(m)
}

func (m MemberRole) IsValid() bool {
	_, ok := rolePermissions[m]
	return ok
}

// Can reports whether the role grants p. Unknown roles grant nothing.
func (m MemberRole) Can(p Permission) bool {
	return rolePermissions[m][p]
}

// CanManageCatalog covers creating, editing and deleting variants.
func (m MemberRole) CanManageCatalog() bool {
	return m.Can(PermissionManageCatalog)
}

// ParseMemberRole accepts the role name in any case.
func ParseMemberRole(value string) (MemberRole, error) {
	role := MemberRole(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role %q", value)
	}
	return role, nil
}
