package roles

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fleetline/backoffice/internal/platform/httpx"
	"github.com/fleetline/backoffice/internal/rbac"
	"github.com/fleetline/backoffice/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesView, shared.PermRolesEdit))
		r.Get("/", h.listRoles)
		r.Get("/{name}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesEdit))
		r.Post("/", h.createRole)
		r.Put("/{name}", h.updateRole)
		r.Delete("/{name}", h.deleteRole)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, "list roles failed", err)
		return
	}
	out := make([]roleView, 0, len(roles))
	for _, role := range roles {
		perms := role.Permissions
		if role.IsAdmin() {
			if perms, err = h.service.EffectivePermissions(r.Context(), role.Name); err != nil {
				h.fail(w, "role permissions failed", err)
				return
			}
		}
		out = append(out, newRoleView(role, perms))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	role, err := h.service.GetRole(r.Context(), name)
	if err != nil {
		h.fail(w, "get role failed", err)
		return
	}
	perms, err := h.service.EffectivePermissions(r.Context(), role.Name)
	if err != nil {
		h.fail(w, "role permissions failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRoleView(role, perms))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.DisplayName, req.Permissions)
	if err != nil {
		h.fail(w, "create role failed", err)
		return
	}
	h.audit("role created", role)
	httpx.JSON(w, http.StatusCreated, newRoleView(role, role.Permissions))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "name"), req.DisplayName, req.Permissions)
	if err != nil {
		h.fail(w, "update role failed", err)
		return
	}
	h.audit("role updated", role)
	httpx.JSON(w, http.StatusOK, newRoleView(role, role.Permissions))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.service.DeleteRole(r.Context(), name); err != nil {
		h.fail(w, "delete role failed", err)
		return
	}
	if h.logger != nil {
		h.logger.Info("role deleted", slog.String("role", name))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(w, r, target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	mapped := rbac.HTTPError(err)
	if mapped == err && h.logger != nil {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, mapped)
}

func (h *Handler) audit(msg string, role rbac.Role) {
	if h.logger == nil {
		return
	}
	h.logger.Info(msg,
		slog.String("role", role.Name),
		slog.Int("permissions", len(role.Permissions)))
}
