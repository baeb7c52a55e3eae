package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fleetline/backoffice/internal/platform/httpx"
	"github.com/fleetline/backoffice/internal/shared"
)

// UserLoader returns the current user with the role they hold right now.
// A nil user with a nil error means the id no longer maps to an active user.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID int64) (*CurrentUser, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Evaluator *Evaluator
	Users     UserLoader
	Logger    *slog.Logger
}

// Resolve loads the session user and resolves their permissions once, so
// every check in the request observes the same set.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AuthorizationFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		ac, err := m.resolve(r)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("rbac resolve", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAuthorization(r.Context(), ac)))
	})
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, AuthorizationContext.HasAnyPermission)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, AuthorizationContext.HasAllPermissions)
}

// RequireAuthenticated only lets signed-in users with a role through.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return m.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, _ := AuthorizationFromContext(r.Context())
		if !ac.Authenticated() {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m Middleware) require(perms []string, check func(AuthorizationContext, ...string) bool) func(http.Handler) http.Handler {
	required := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return m.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			ac, _ := AuthorizationFromContext(r.Context())
			if !ac.Authenticated() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			if !check(ac, required...) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (m Middleware) resolve(r *http.Request) (AuthorizationContext, error) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok || m.Users == nil {
		return Anonymous(), nil
	}
	user, err := m.Users.CurrentUser(r.Context(), userID)
	if err != nil {
		return Anonymous(), err
	}
	return m.Evaluator.Resolve(r.Context(), user)
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = NormalizeKey(p)
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
