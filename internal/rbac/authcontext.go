package rbac

import (
	"sort"
	"time"
)

// Source tells where a resolved permission set came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceAdmin    Source = "admin"
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// AuthorizationContext is the permission set in effect for one user during
// one request or render pass. It is immutable; resolve a new one when the
// user or role changes.
type AuthorizationContext struct {
	userID     int64
	roleName   string
	admin      bool
	source     Source
	perms      map[string]struct{}
	resolvedAt time.Time
}

// Anonymous returns the deny-all context used when no user is signed in.
func Anonymous() AuthorizationContext {
	return AuthorizationContext{source: SourceNone}
}

func newAuthorizationContext(user *CurrentUser, source Source, keys []string, at time.Time) AuthorizationContext {
	perms := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		perms[NormalizeKey(k)] = struct{}{}
	}
	ac := AuthorizationContext{
		source:     source,
		perms:      perms,
		resolvedAt: at,
		admin:      source == SourceAdmin,
	}
	if user != nil {
		ac.userID = user.ID
		if user.Role != nil {
			ac.roleName = user.Role.Name
		}
	}
	return ac
}

// UserID returns the user the context was resolved for, zero when anonymous.
func (a AuthorizationContext) UserID() int64 { return a.userID }

// RoleName returns the role name the context was resolved for.
func (a AuthorizationContext) RoleName() string { return a.roleName }

// IsAdmin reports whether the admin bypass applies.
func (a AuthorizationContext) IsAdmin() bool { return a.admin }

// Source reports how the permissions were resolved.
func (a AuthorizationContext) Source() Source {
	if a.source == "" {
		return SourceNone
	}
	return a.source
}

// ResolvedAt returns when the permission set was resolved.
func (a AuthorizationContext) ResolvedAt() time.Time { return a.resolvedAt }

// Authenticated reports whether the context belongs to a user with a role.
func (a AuthorizationContext) Authenticated() bool {
	return a.Source() != SourceNone
}

// HasPermission reports whether key is granted.
func (a AuthorizationContext) HasPermission(key string) bool {
	if !a.Authenticated() {
		return false
	}
	if a.admin {
		return true
	}
	_, ok := a.perms[NormalizeKey(key)]
	return ok
}

// HasAnyPermission reports whether at least one key is granted. An empty
// key list is never satisfied.
func (a AuthorizationContext) HasAnyPermission(keys ...string) bool {
	if len(keys) == 0 || !a.Authenticated() {
		return false
	}
	if a.admin {
		return true
	}
	for _, k := range keys {
		if _, ok := a.perms[NormalizeKey(k)]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every key is granted. An empty key list
// is never satisfied.
func (a AuthorizationContext) HasAllPermissions(keys ...string) bool {
	if len(keys) == 0 || !a.Authenticated() {
		return false
	}
	if a.admin {
		return true
	}
	for _, k := range keys {
		if _, ok := a.perms[NormalizeKey(k)]; !ok {
			return false
		}
	}
	return true
}

// Permissions returns the resolved keys sorted.
func (a AuthorizationContext) Permissions() []string {
	keys := make([]string, 0, len(a.perms))
	for k := range a.perms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
