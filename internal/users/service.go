package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetline/backoffice/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	CountByRole(ctx context.Context, roleID int64) (int, error)
}

// RoleLookup resolves role names; *rbac.Registry satisfies it.
type RoleLookup interface {
	GetRole(ctx context.Context, name string) (rbac.Role, error)
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleLookup
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleLookup) *Service {
	return &Service{repo: repo, roles: roles}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// CurrentUser loads the user and the role it holds at this moment. Missing
// and deactivated accounts yield a nil user so they resolve to deny-all.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*rbac.CurrentUser, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if !user.IsActive {
		return nil, nil
	}
	return user.Principal(), nil
}

// AssignRole binds userID to the named role and returns the updated user.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleName string) (User, error) {
	role, err := s.roles.GetRole(ctx, roleName)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.AssignRole(ctx, userID, role.ID); err != nil {
		return User{}, err
	}
	return s.repo.GetUser(ctx, userID)
}

// CountByRole reports how many users are bound to roleID.
func (s *Service) CountByRole(ctx context.Context, roleID int64) (int, error) {
	return s.repo.CountByRole(ctx, roleID)
}

var _ rbac.UserLoader = (*Service)(nil)
