package users

import (
	"errors"
	"time"

	"github.com/fleetline/backoffice/internal/rbac"
)

// ErrUserNotFound is returned when no user matches the requested id.
var ErrUserNotFound = errors.New("users: user not found")

// User represents a user account for management.
type User struct {
	ID        int64
	Email     string
	Name      string
	IsActive  bool
	Role      *rbac.RoleRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal converts the account into the shape the evaluator consumes.
func (u User) Principal() *rbac.CurrentUser {
	var role *rbac.RoleRef
	if u.Role != nil {
		ref := *u.Role
		role = &ref
	}
	return &rbac.CurrentUser{ID: u.ID, Role: role}
}
