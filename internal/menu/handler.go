package menu

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetline/backoffice/internal/platform/httpx"
	"github.com/fleetline/backoffice/internal/rbac"
)

// Handler serves the navigation visible to the caller.
type Handler struct {
	tree []Entry
	rbac rbac.Middleware
}

// NewHandler builds Handler instance. A nil tree uses DefaultTree.
func NewHandler(tree []Entry, rbac rbac.Middleware) *Handler {
	if tree == nil {
		tree = DefaultTree()
	}
	return &Handler{tree: tree, rbac: rbac}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAuthenticated).Get("/", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	ac, _ := rbac.AuthorizationFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"source": ac.Source(),
		"items":  Filter(h.tree, ac),
	})
}
