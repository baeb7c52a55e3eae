package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetline/backoffice/internal/app"
	"github.com/fleetline/backoffice/internal/auth"
	"github.com/fleetline/backoffice/internal/menu"
	"github.com/fleetline/backoffice/internal/observability"
	"github.com/fleetline/backoffice/internal/rbac"
	"github.com/fleetline/backoffice/internal/roles"
	"github.com/fleetline/backoffice/internal/shared"
	"github.com/fleetline/backoffice/internal/users"
	_ "github.com/fleetline/backoffice/testing"
)

type authRepo struct{ user *auth.User }

func (a authRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if a.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return a.user, nil
}

func (authRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (authRepo) DeleteSession(ctx context.Context, id string) error { return nil }

type usersRepo struct{ user users.User }

func (u *usersRepo) ListUsers(ctx context.Context) ([]users.User, error) {
	return []users.User{u.user}, nil
}

func (u *usersRepo) GetUser(ctx context.Context, id int64) (users.User, error) {
	if id != u.user.ID {
		return users.User{}, users.ErrUserNotFound
	}
	return u.user, nil
}

func (u *usersRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	return errors.New("not supported")
}

func (u *usersRepo) CountByRole(ctx context.Context, roleID int64) (int, error) { return 1, nil }

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	res := httptest.NewRecorder()
	c.router.ServeHTTP(res, req)
	for _, ck := range res.Result().Cookies() {
		if ck.MaxAge < 0 {
			c.cookie = nil
			continue
		}
		c.cookie = ck
	}
	return res
}

func newClient(t *testing.T, fetchErr error) *client {
	t.Helper()
	ctx := context.Background()
	logger := app.NewLogger(&app.Config{LogFormat: "json"})

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessions := shared.NewSessionManager(redisClient, "backoffice_session", "secret", time.Hour, false)

	catalog := rbac.DefaultCatalog()
	registry := rbac.NewRegistry(rbac.NewMemoryStore(), catalog)
	role, err := registry.CreateRole(ctx, "clerk", "Warehouse Clerk", []string{"dashboard.view", "warehouse.view", "warehouse.create"})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := auth.NewService(authRepo{user: &auth.User{ID: 5, Email: "clerk@fleetline.test", PasswordHash: string(hash), IsActive: true}})
	usersSvc := users.NewService(&usersRepo{user: users.User{
		ID: 5, Email: "clerk@fleetline.test", IsActive: true,
		Role: &rbac.RoleRef{ID: role.ID, Name: role.Name, DisplayName: role.DisplayName},
	}}, registry)

	table, err := rbac.DefaultFallbackTable()
	require.NoError(t, err)
	fetcher := rbac.FetcherFunc(registry.FetchRolePermissions)
	if fetchErr != nil {
		fetcher = func(ctx context.Context, roleID int64) ([]string, error) { return nil, fetchErr }
	}
	metrics := observability.NewMetrics()
	evaluator := rbac.NewEvaluator(rbac.EvaluatorParams{
		Catalog:  catalog,
		Fetcher:  fetcher,
		Fallback: table,
		Logger:   logger,
		Metrics:  rbac.NewMetrics(metrics.Registerer()),
	})
	mw := rbac.Middleware{Evaluator: evaluator, Users: usersSvc, Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             &app.Config{AppEnv: "test", RateLimitPerMinute: 1000},
		SessionManager:     sessions,
		AuthHandler:        auth.NewHandler(logger, authSvc, sessions),
		RolesHandler:       roles.NewHandler(logger, roles.NewService(registry, usersSvc), mw),
		UsersHandler:       users.NewHandler(logger, usersSvc, mw),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, catalog, mw),
		MenuHandler:        menu.NewHandler(nil, mw),
		RBACMiddleware:     mw,
		Metrics:            metrics,
		Health:             pinger{},
	})
	return &client{t: t, router: router}
}

func TestSignedInUserGetsLivePermissionsAndMenu(t *testing.T) {
	c := newClient(t, nil)

	res := c.do(http.MethodGet, "/menu/", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = c.do(http.MethodPost, "/auth/login", `{"email":"clerk@fleetline.test","password":"password123"}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, c.cookie)

	res = c.do(http.MethodGet, "/me/permissions", "")
	require.Equal(t, http.StatusOK, res.Code)
	var view rbac.AuthorizationView
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &view))
	assert.Equal(t, rbac.SourceLive, view.Source)
	assert.Equal(t, []string{"dashboard.view", "warehouse.create", "warehouse.view"}, view.Permissions)

	res = c.do(http.MethodGet, "/menu/", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"id":"warehouse.receive"`)
	assert.NotContains(t, res.Body.String(), `"id":"admin"`)

	res = c.do(http.MethodGet, "/roles/", "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = c.do(http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Nil(t, c.cookie)
}

func TestFallbackServesAliasPermissions(t *testing.T) {
	c := newClient(t, errors.New("pool exhausted"))

	res := c.do(http.MethodPost, "/auth/login", `{"email":"clerk@fleetline.test","password":"password123"}`)
	require.Equal(t, http.StatusOK, res.Code)

	res = c.do(http.MethodGet, "/me/permissions", "")
	require.Equal(t, http.StatusOK, res.Code)
	var view rbac.AuthorizationView
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &view))
	assert.Equal(t, rbac.SourceFallback, view.Source)
	assert.Contains(t, view.Permissions, "returns.create")

	res = c.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `backoffice_rbac_resolutions_total{source="fallback"} 1`)
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	c := newClient(t, nil)
	res := c.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))

	res = c.do(http.MethodPost, "/auth/login", "")
	assert.NotEqual(t, http.StatusOK, res.Code)
}
