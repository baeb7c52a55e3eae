package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Registry maps role names to permission sets, validating every key against
// the catalog.
type Registry struct {
	store   Store
	catalog *Catalog
}

// NewRegistry constructs a Registry.
func NewRegistry(store Store, catalog *Catalog) *Registry {
	return &Registry{store: store, catalog: catalog}
}

// Catalog exposes the catalog the registry validates against.
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// ListRoles returns all roles ordered by name.
func (r *Registry) ListRoles(ctx context.Context) ([]Role, error) {
	return r.store.ListRoles(ctx)
}

// GetRole fetches a role by name.
func (r *Registry) GetRole(ctx context.Context, name string) (Role, error) {
	return r.store.GetRole(ctx, strings.TrimSpace(name))
}

// CreateRole inserts a new role.
func (r *Registry) CreateRole(ctx context.Context, name, displayName string, keys []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", ErrInvalid)
	}
	// Only the exact name may hold the admin bypass; look-alikes would be
	// undeletable admins that plain lower(name) uniqueness does not catch.
	if IsAdminRole(name) && name != AdminRole {
		return Role{}, fmt.Errorf("%w: %q is reserved, use %q", ErrReservedRole, name, AdminRole)
	}
	perms, err := r.validateKeys(keys)
	if err != nil {
		return Role{}, err
	}
	if _, err := r.store.GetRole(ctx, name); err == nil {
		return Role{}, &DuplicateRoleError{Name: name}
	} else if !errors.Is(err, ErrNotFound) {
		return Role{}, err
	}
	return r.store.CreateRole(ctx, Role{
		Name:        name,
		DisplayName: displayOrName(displayName, name),
		Permissions: perms,
	})
}

// UpdateRole replaces the display name and permission set of a role.
func (r *Registry) UpdateRole(ctx context.Context, name, displayName string, keys []string) (Role, error) {
	name = strings.TrimSpace(name)
	perms, err := r.validateKeys(keys)
	if err != nil {
		return Role{}, err
	}
	return r.store.UpdateRole(ctx, name, Role{
		Name:        name,
		DisplayName: displayOrName(displayName, name),
		Permissions: perms,
	})
}

// DeleteRole removes a role. Callers must make sure no user still references it.
func (r *Registry) DeleteRole(ctx context.Context, name string) error {
	if IsAdminRole(name) {
		return ErrReservedRole
	}
	return r.store.DeleteRole(ctx, strings.TrimSpace(name))
}

// GetPermissions returns the permission keys of a role. The admin role
// always receives the whole catalog regardless of what is stored.
func (r *Registry) GetPermissions(ctx context.Context, roleName string) ([]string, error) {
	if IsAdminRole(roleName) {
		return r.catalog.Keys(), nil
	}
	role, err := r.store.GetRole(ctx, strings.TrimSpace(roleName))
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// FetchRolePermissions loads the stored permission keys of a role by id.
func (r *Registry) FetchRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	return r.store.RolePermissions(ctx, roleID)
}

func (r *Registry) validateKeys(keys []string) ([]string, error) {
	perms, err := normalizeKeySet(keys)
	if err != nil {
		return nil, err
	}
	for _, key := range perms {
		if !r.catalog.Has(key) {
			return nil, &UnknownPermissionError{Key: key}
		}
	}
	return perms, nil
}

func displayOrName(displayName, name string) string {
	if d := strings.TrimSpace(displayName); d != "" {
		return d
	}
	return name
}
