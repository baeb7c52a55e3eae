package rbac

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrDuplicate is matched by every duplicate-entry error in this package.
	ErrDuplicate = errors.New("rbac: duplicate")
	// ErrInvalid is matched by validation failures raised during administration.
	ErrInvalid = errors.New("rbac: invalid")
	// ErrReservedRole guards the admin role against removal.
	ErrReservedRole = errors.New("rbac: reserved role")
	// ErrInternal marks programming defects such as a malformed fallback table.
	ErrInternal = errors.New("rbac: internal error")
)

// DuplicateKeyError reports a catalog entry registered twice.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("rbac: permission %q already registered", e.Key)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicate }

// DuplicateRoleError reports a role name collision.
type DuplicateRoleError struct {
	Name string
}

func (e *DuplicateRoleError) Error() string {
	return fmt.Sprintf("rbac: role %q already exists", e.Name)
}

func (e *DuplicateRoleError) Unwrap() error { return ErrDuplicate }

// UnknownPermissionError reports a key that is not in the catalog.
type UnknownPermissionError struct {
	Key string
}

func (e *UnknownPermissionError) Error() string {
	return fmt.Sprintf("rbac: unknown permission %q", e.Key)
}

func (e *UnknownPermissionError) Unwrap() error { return ErrInvalid }

// InvalidKeyError reports a malformed module.action key.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("rbac: malformed permission key %q", e.Key)
}

func (e *InvalidKeyError) Unwrap() error { return ErrInvalid }

// PermissionFetchError wraps a failed or malformed live permission fetch.
// The evaluator recovers from it; it never reaches consumers.
type PermissionFetchError struct {
	RoleID int64
	Err    error
}

func (e *PermissionFetchError) Error() string {
	return fmt.Sprintf("rbac: fetch permissions for role %d: %v", e.RoleID, e.Err)
}

func (e *PermissionFetchError) Unwrap() error { return e.Err }

// InternalError is a programming defect surfaced during evaluation.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("rbac: internal error in %s", e.Op)
	}
	return fmt.Sprintf("rbac: internal error in %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInternal}
	}
	return []error{ErrInternal, e.Err}
}
