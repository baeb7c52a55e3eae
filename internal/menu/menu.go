// Package menu projects the navigation tree onto the permissions of the
// current user.
package menu

import "github.com/fleetline/backoffice/internal/rbac"

// Entry is one navigation affordance. Permission and AnyOf are alternative
// predicates; an entry with neither is shown to every signed-in user.
type Entry struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Path       string   `json:"path,omitempty"`
	Permission string   `json:"-"`
	AnyOf      []string `json:"-"`
	Children   []Entry  `json:"children,omitempty"`
}

func (e Entry) guarded() bool {
	return e.Permission != "" || len(e.AnyOf) > 0
}

func (e Entry) allowed(ac rbac.AuthorizationContext) bool {
	if e.Permission != "" && ac.HasPermission(e.Permission) {
		return true
	}
	return len(e.AnyOf) > 0 && ac.HasAnyPermission(e.AnyOf...)
}

// IsVisible reports whether entry renders for ac. A parent is visible when
// its own predicate holds or when any child is visible.
func IsVisible(entry Entry, ac rbac.AuthorizationContext) bool {
	if !ac.Authenticated() {
		return false
	}
	if !entry.guarded() || entry.allowed(ac) {
		return true
	}
	for _, child := range entry.Children {
		if IsVisible(child, ac) {
			return true
		}
	}
	return false
}

// Filter returns the visible subset of entries with invisible children
// pruned at every level. The input is not modified.
func Filter(entries []Entry, ac rbac.AuthorizationContext) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if !IsVisible(entry, ac) {
			continue
		}
		visible := entry
		visible.AnyOf = append([]string(nil), entry.AnyOf...)
		visible.Children = nil
		if len(entry.Children) > 0 {
			visible.Children = Filter(entry.Children, ac)
		}
		out = append(out, visible)
	}
	return out
}
