package roles

import (
	"context"
	"fmt"

	"github.com/fleetline/backoffice/internal/rbac"
)

// AssignmentCounter reports how many users hold a role.
type AssignmentCounter interface {
	CountByRole(ctx context.Context, roleID int64) (int, error)
}

// Service handles role business logic.
type Service struct {
	registry    *rbac.Registry
	assignments AssignmentCounter
}

// NewService builds Service instance.
func NewService(registry *rbac.Registry, assignments AssignmentCounter) *Service {
	return &Service{registry: registry, assignments: assignments}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	return s.registry.ListRoles(ctx)
}

// GetRole returns a role by name.
func (s *Service) GetRole(ctx context.Context, name string) (rbac.Role, error) {
	return s.registry.GetRole(ctx, name)
}

// EffectivePermissions returns what the role grants, which for admin is the
// whole catalog.
func (s *Service) EffectivePermissions(ctx context.Context, name string) ([]string, error) {
	return s.registry.GetPermissions(ctx, name)
}

// CreateRole registers a role.
func (s *Service) CreateRole(ctx context.Context, name, displayName string, keys []string) (rbac.Role, error) {
	return s.registry.CreateRole(ctx, name, displayName, keys)
}

// UpdateRole replaces the display name and permissions of a role.
func (s *Service) UpdateRole(ctx context.Context, name, displayName string, keys []string) (rbac.Role, error) {
	return s.registry.UpdateRole(ctx, name, displayName, keys)
}

// DeleteRole removes a role no user is bound to.
func (s *Service) DeleteRole(ctx context.Context, name string) error {
	if rbac.IsAdminRole(name) {
		return rbac.ErrReservedRole
	}
	role, err := s.registry.GetRole(ctx, name)
	if err != nil {
		return err
	}
	if s.assignments != nil {
		n, err := s.assignments.CountByRole(ctx, role.ID)
		if err != nil {
			return fmt.Errorf("count role assignments: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d users hold %q", rbac.ErrRoleInUse, n, role.Name)
		}
	}
	return s.registry.DeleteRole(ctx, role.Name)
}
