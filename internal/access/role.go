// Package access holds the closed role enumeration and the static tables that
// decide which dashboard actions and navigation entries each role may see.
//
// Everything here is pure: no session state, no rendering. The remote API
// re-validates roles on every mutating call; these tables only shape the UI.
package access

import (
	"fmt"
	"strings"
)

// Role is one of superuser, editor or viewer. The zero value is RoleNone and
// never matches an allow-list.
type Role int

const (
	RoleNone Role = iota
	RoleSuperuser
	RoleEditor
	RoleViewer
)

// Roles lists every assignable role.
var Roles = []Role{RoleSuperuser, RoleEditor, RoleViewer}

// ParseRole converts the wire representation into a Role.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "superuser":
		return RoleSuperuser, nil
	case "editor":
		return RoleEditor, nil
	case "viewer":
		return RoleViewer, nil
	default:
		return RoleNone, fmt.Errorf("access: unknown role %q", value)
	}
}

func (r Role) String() string {
	switch r {
	case RoleSuperuser:
		return "superuser"
	case RoleEditor:
		return "editor"
	case RoleViewer:
		return "viewer"
	default:
		return "none"
	}
}

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperuser, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// Title returns the capitalised badge label.
func (r Role) Title() string {
	name := r.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// MarshalText encodes the role for JSON and YAML.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("access: cannot encode role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role, rejecting unknown names.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is an allow-list.
type RoleSet []Role

// Contains reports membership; RoleNone is never a member.
func (s RoleSet) Contains(role Role) bool {
	if !role.Valid() {
		return false
	}
	for _, candidate := range s {
		if candidate == role {
			return true
		}
	}
	return false
}

var (
	allRoles      = RoleSet{RoleSuperuser, RoleEditor, RoleViewer}
	operatorRoles = RoleSet{RoleSuperuser, RoleEditor}
	adminRoles    = RoleSet{RoleSuperuser}
)
