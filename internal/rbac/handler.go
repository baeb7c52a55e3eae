package rbac

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fleetline/backoffice/internal/platform/httpx"
	"github.com/fleetline/backoffice/internal/shared"
)

// PermissionsHandler serves the catalog and the caller's resolved permissions.
type PermissionsHandler struct {
	logger  *slog.Logger
	catalog *Catalog
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, catalog *Catalog, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, catalog: catalog, rbac: rbac}
}

// MountRoutes registers permission catalog routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPermissionsView, shared.PermRolesEdit))
		r.Get("/", h.listPermissions)
	})
}

// MountSelf registers the caller's own permission view.
func (h *PermissionsHandler) MountSelf(r chi.Router) {
	r.With(h.rbac.RequireAuthenticated).Get("/permissions", h.myPermissions)
}

type permissionView struct {
	Key         string `json:"key"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// AuthorizationView is the JSON shape of an AuthorizationContext.
type AuthorizationView struct {
	UserID      int64     `json:"user_id"`
	Role        string    `json:"role"`
	Admin       bool      `json:"admin"`
	Source      Source    `json:"source"`
	Permissions []string  `json:"permissions"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms := h.catalog.List()
	out := make([]permissionView, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionView{Key: p.Key(), Module: p.Module, Action: p.Action, Description: p.Description})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}

func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	ac, _ := AuthorizationFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, NewAuthorizationView(ac))
}

// NewAuthorizationView renders an AuthorizationContext for JSON responses.
func NewAuthorizationView(ac AuthorizationContext) AuthorizationView {
	return AuthorizationView{
		UserID:      ac.UserID(),
		Role:        ac.RoleName(),
		Admin:       ac.IsAdmin(),
		Source:      ac.Source(),
		Permissions: ac.Permissions(),
		ResolvedAt:  ac.ResolvedAt(),
	}
}
