package rbac

import (
	"sort"
	"strings"
	"time"
)

// AdminRole is the reserved role name granted every permission implicitly.
const AdminRole = "admin"

// DefaultPermission is what an unmatched role falls back to.
const DefaultPermission = "dashboard.view"

// Permission represents an atomic capability identified by module.action.
type Permission struct {
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Key returns the composite module.action identifier.
func (p Permission) Key() string {
	return p.Module + "." + p.Action
}

// Role is a named bundle of permission keys.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAdmin reports whether the role carries the reserved admin name.
func (r Role) IsAdmin() bool {
	return IsAdminRole(r.Name)
}

// RoleRef is the slice of a role a session needs for authorization.
type RoleRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// CurrentUser is the authenticated actor. A nil *CurrentUser or a nil Role
// denies every permission.
type CurrentUser struct {
	ID   int64    `json:"id"`
	Role *RoleRef `json:"role"`
}

// ParseKey normalizes a permission key and splits it at the last dot.
func ParseKey(raw string) (module, action string, err error) {
	key := NormalizeKey(raw)
	idx := strings.LastIndexByte(key, '.')
	if idx <= 0 || idx == len(key)-1 {
		return "", "", &InvalidKeyError{Key: raw}
	}
	module, action = key[:idx], key[idx+1:]
	for _, part := range strings.Split(module, ".") {
		if !validSegment(part) {
			return "", "", &InvalidKeyError{Key: raw}
		}
	}
	if !validSegment(action) {
		return "", "", &InvalidKeyError{Key: raw}
	}
	return module, action, nil
}

// NormalizeKey trims and lower-cases a permission key.
func NormalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// normalizeKeySet validates keys and returns them sorted with duplicates collapsed.
func normalizeKeySet(keys []string) ([]string, error) {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, raw := range keys {
		module, action, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		key := module + "." + action
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}
