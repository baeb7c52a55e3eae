package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fleetline/backoffice/internal/platform/httpx"
	"github.com/fleetline/backoffice/internal/rbac"
	"github.com/fleetline/backoffice/internal/shared"
)

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersView, shared.PermUsersEdit))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersEdit))
		r.Put("/{id}/role", h.assignRole)
	})
}

type roleView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type userView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Role      *roleView `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,max=64"`
}

func newUserView(u User) userView {
	view := userView{ID: u.ID, Email: u.Email, Name: u.Name, IsActive: u.IsActive, UpdatedAt: u.UpdatedAt}
	if u.Role != nil {
		view.Role = &roleView{ID: u.Role.ID, Name: u.Role.Name, DisplayName: u.Role.DisplayName}
	}
	return view
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logError("list users failed", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, newUserView(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", httpx.ErrValidation))
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	user, err := h.service.AssignRole(r.Context(), id, req.Role)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrNotFound, err))
			return
		}
		h.logError("assign role failed", err)
		httpx.RespondError(w, rbac.HTTPError(err))
		return
	}
	if h.logger != nil {
		h.logger.Info("role assigned", slog.Int64("user_id", id), slog.String("role", req.Role))
	}
	httpx.JSON(w, http.StatusOK, newUserView(user))
}

func (h *Handler) logError(msg string, err error) {
	if h.logger != nil && !errors.Is(err, rbac.ErrNotFound) {
		h.logger.Error(msg, slog.Any("error", err))
	}
}
