package menu_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/backoffice/internal/menu"
	"github.com/fleetline/backoffice/internal/rbac"
)

func TestHandlerServesFilteredMenu(t *testing.T) {
	ac := resolve(t, &rbac.RoleRef{ID: 5, Name: "fleet"}, []string{"dashboard.view", "vehicles.view"}, nil)
	r := chi.NewRouter()
	r.Route("/menu", menu.NewHandler(nil, rbac.Middleware{}).MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/menu/", nil)
	req = req.WithContext(rbac.ContextWithAuthorization(req.Context(), ac))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Source string       `json:"source"`
		Items  []menu.Entry `json:"items"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "live", body.Source)
	assert.Equal(t, []string{"dashboard", "fleet", "vehicles"}, ids(body.Items))
}

func TestHandlerRejectsAnonymous(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/menu", menu.NewHandler(nil, rbac.Middleware{}).MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/menu/", nil)
	req = req.WithContext(rbac.ContextWithAuthorization(req.Context(), rbac.Anonymous()))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
