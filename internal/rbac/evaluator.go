package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// EvaluatorParams groups the collaborators of an Evaluator.
type EvaluatorParams struct {
	Catalog  *Catalog
	Fetcher  RoleFetcher
	Fallback *FallbackTable
	Logger   *slog.Logger
	Metrics  *Metrics
}

// Evaluator decides allow/deny for a user. It holds no per-user state: each
// Resolve reads the user's current role and builds a fresh context.
type Evaluator struct {
	catalog  *Catalog
	fetcher  RoleFetcher
	fallback *FallbackTable
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(params EvaluatorParams) *Evaluator {
	catalog := params.Catalog
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Evaluator{
		catalog:  catalog,
		fetcher:  params.Fetcher,
		fallback: params.Fallback,
		logger:   params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}
}

// Resolve returns the permission set in effect for user. A failed live fetch
// is recovered through the fallback table; only a broken fallback table
// produces an error.
func (e *Evaluator) Resolve(ctx context.Context, user *CurrentUser) (AuthorizationContext, error) {
	if user == nil || user.Role == nil {
		e.metrics.observeResolution(SourceNone)
		return Anonymous(), nil
	}
	now := e.now()
	if IsAdminRole(user.Role.Name) {
		e.metrics.observeResolution(SourceAdmin)
		return newAuthorizationContext(user, SourceAdmin, e.catalog.Keys(), now), nil
	}

	perms, err := e.fetchLive(ctx, user.Role)
	if err == nil {
		e.metrics.observeResolution(SourceLive)
		return newAuthorizationContext(user, SourceLive, perms, now), nil
	}
	e.metrics.observeFetchFailure(fetchFailureReason(err))
	if e.logger != nil {
		e.logger.Warn("rbac live fetch failed, using fallback",
			slog.Int64("user_id", user.ID),
			slog.String("role", user.Role.Name),
			slog.Any("error", err))
	}

	perms, matched, err := e.fallback.Lookup(fallbackName(user.Role))
	if err != nil {
		if e.logger != nil {
			e.logger.Error("rbac fallback lookup", slog.Any("error", err))
		}
		return Anonymous(), err
	}
	if !matched && e.logger != nil {
		e.logger.Info("rbac fallback default applied", slog.String("role", fallbackName(user.Role)))
	}
	e.metrics.observeResolution(SourceFallback)
	return newAuthorizationContext(user, SourceFallback, perms, now), nil
}

// HasPermission resolves user and checks a single key.
func (e *Evaluator) HasPermission(ctx context.Context, user *CurrentUser, key string) (bool, error) {
	if user == nil || user.Role == nil {
		return false, nil
	}
	if IsAdminRole(user.Role.Name) {
		return true, nil
	}
	ac, err := e.Resolve(ctx, user)
	if err != nil {
		return false, err
	}
	return ac.HasPermission(key), nil
}

// HasAnyPermission resolves user and checks whether any key is granted.
func (e *Evaluator) HasAnyPermission(ctx context.Context, user *CurrentUser, keys ...string) (bool, error) {
	if user == nil || user.Role == nil || len(keys) == 0 {
		return false, nil
	}
	if IsAdminRole(user.Role.Name) {
		return true, nil
	}
	ac, err := e.Resolve(ctx, user)
	if err != nil {
		return false, err
	}
	return ac.HasAnyPermission(keys...), nil
}

func (e *Evaluator) fetchLive(ctx context.Context, role *RoleRef) ([]string, error) {
	if e.fetcher == nil {
		return nil, &PermissionFetchError{RoleID: role.ID, Err: errors.New("no live fetcher configured")}
	}
	raw, err := e.fetcher.FetchRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, &PermissionFetchError{RoleID: role.ID, Err: err}
	}
	perms, err := normalizeKeySet(raw)
	if err != nil {
		return nil, &PermissionFetchError{RoleID: role.ID, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return perms, nil
}

func fallbackName(role *RoleRef) string {
	if name := strings.TrimSpace(role.DisplayName); name != "" {
		return name
	}
	return role.Name
}

func fetchFailureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalid):
		return "malformed"
	default:
		return "error"
	}
}
