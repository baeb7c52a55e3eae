package rbac_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/backoffice/internal/rbac"
)

type countingFetcher struct {
	perms []string
	err   error
	calls atomic.Int32
}

func (f *countingFetcher) FetchRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.perms, nil
}

func newEvaluator(t *testing.T, fetcher rbac.RoleFetcher) *rbac.Evaluator {
	t.Helper()
	table, err := rbac.DefaultFallbackTable()
	require.NoError(t, err)
	return rbac.NewEvaluator(rbac.EvaluatorParams{
		Catalog:  rbac.DefaultCatalog(),
		Fetcher:  fetcher,
		Fallback: table,
	})
}

func userWithRole(id int64, name, display string) *rbac.CurrentUser {
	return &rbac.CurrentUser{ID: 1, Role: &rbac.RoleRef{ID: id, Name: name, DisplayName: display}}
}

func TestAdminGrantedEverythingWithoutFetching(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("must not be called")}
	eval := newEvaluator(t, fetcher)
	ctx := context.Background()

	for _, name := range []string{"admin", "Admin", "ADMIN", "aDmIn"} {
		user := userWithRole(1, name, "Administrator")
		for _, key := range []string{"packages.delete", "roles.edit", "not.in_catalog"} {
			ok, err := eval.HasPermission(ctx, user, key)
			require.NoError(t, err)
			assert.True(t, ok, "%s %s", name, key)
		}
		ac, err := eval.Resolve(ctx, user)
		require.NoError(t, err)
		assert.True(t, ac.IsAdmin())
		assert.Equal(t, rbac.SourceAdmin, ac.Source())
		assert.True(t, ac.HasPermission("not.in_catalog"))
	}
	assert.Zero(t, fetcher.calls.Load())
}

func TestAbsentUserDeniesEverything(t *testing.T) {
	eval := newEvaluator(t, &countingFetcher{perms: []string{"dashboard.view"}})
	ctx := context.Background()

	for _, user := range []*rbac.CurrentUser{nil, {ID: 9}} {
		ok, err := eval.HasPermission(ctx, user, "dashboard.view")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = eval.HasAnyPermission(ctx, user, "dashboard.view", "packages.view")
		require.NoError(t, err)
		assert.False(t, ok)

		ac, err := eval.Resolve(ctx, user)
		require.NoError(t, err)
		assert.False(t, ac.Authenticated())
		assert.Equal(t, rbac.SourceNone, ac.Source())
	}
}

func TestRouteManagerScenario(t *testing.T) {
	reg := rbac.NewRegistry(rbac.NewMemoryStore(), rbac.DefaultCatalog())
	ctx := context.Background()
	role, err := reg.CreateRole(ctx, "route_manager", "Route Manager", []string{"routes.view", "routes.manage"})
	require.NoError(t, err)

	eval := newEvaluator(t, reg)
	user := userWithRole(role.ID, role.Name, role.DisplayName)

	ok, err := eval.HasPermission(ctx, user, "routes.manage")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eval.HasPermission(ctx, user, "packages.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	ac, err := eval.Resolve(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, rbac.SourceLive, ac.Source())
	for _, key := range reg.Catalog().Keys() {
		assert.Equal(t, key == "routes.view" || key == "routes.manage", ac.HasPermission(key), key)
	}
}

func TestHasAnyPermission(t *testing.T) {
	eval := newEvaluator(t, &countingFetcher{perms: []string{"warehouse.create"}})
	ctx := context.Background()
	user := userWithRole(3, "clerk", "Clerk")

	ok, err := eval.HasAnyPermission(ctx, user, "warehouse.view", "warehouse.create")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eval.HasAnyPermission(ctx, user, "warehouse.view", "stores.view")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = eval.HasAnyPermission(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	admin := userWithRole(1, "admin", "")
	ok, err = eval.HasAnyPermission(ctx, admin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchFailureUsesFallbackForAlias(t *testing.T) {
	eval := newEvaluator(t, &countingFetcher{err: errors.New("connection refused")})
	table, err := rbac.DefaultFallbackTable()
	require.NoError(t, err)
	ctx := context.Background()

	want, matched, err := table.Lookup("storesmanager")
	require.NoError(t, err)
	require.True(t, matched)

	for _, display := range []string{"Stores Manager", "storesmanager", "storesrep"} {
		ac, err := eval.Resolve(ctx, userWithRole(4, "stores", display))
		require.NoError(t, err)
		assert.Equal(t, rbac.SourceFallback, ac.Source(), display)
		assert.Equal(t, want, ac.Permissions(), display)
	}
}

func TestUnknownAliasFallsBackToDashboardOnly(t *testing.T) {
	eval := newEvaluator(t, &countingFetcher{err: errors.New("timeout")})
	ac, err := eval.Resolve(context.Background(), userWithRole(5, "intern", "Intern"))
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard.view"}, ac.Permissions())
	assert.Equal(t, rbac.SourceFallback, ac.Source())
}

func TestFallbackUsesRoleNameWhenDisplayNameMissing(t *testing.T) {
	eval := newEvaluator(t, &countingFetcher{err: errors.New("down")})
	ac, err := eval.Resolve(context.Background(), userWithRole(6, "driver", " "))
	require.NoError(t, err)
	assert.True(t, ac.HasPermission("trips.complete"))
}

func TestMalformedResponseUsesFallback(t *testing.T) {
	eval := newEvaluator(t, &countingFetcher{perms: []string{"trips.view", "??"}})
	ac, err := eval.Resolve(context.Background(), userWithRole(7, "driver", "Driver"))
	require.NoError(t, err)
	assert.Equal(t, rbac.SourceFallback, ac.Source())
	assert.True(t, ac.HasPermission("trips.complete"))
}

func TestMissingFetcherUsesFallback(t *testing.T) {
	eval := newEvaluator(t, nil)
	ac, err := eval.Resolve(context.Background(), userWithRole(7, "driver", "Courier"))
	require.NoError(t, err)
	assert.Equal(t, rbac.SourceFallback, ac.Source())
}

func TestBrokenFallbackTableIsInternalError(t *testing.T) {
	eval := rbac.NewEvaluator(rbac.EvaluatorParams{
		Catalog: rbac.DefaultCatalog(),
		Fetcher: &countingFetcher{err: errors.New("down")},
	})
	_, err := eval.Resolve(context.Background(), userWithRole(8, "driver", "Driver"))
	require.Error(t, err)
	assert.ErrorIs(t, err, rbac.ErrInternal)

	_, err = eval.HasPermission(context.Background(), userWithRole(8, "driver", "Driver"), "trips.view")
	assert.ErrorIs(t, err, rbac.ErrInternal)
}

func TestResolveIsIdempotent(t *testing.T) {
	fetcher := &countingFetcher{perms: []string{"packages.view", "manifests.view"}}
	eval := newEvaluator(t, fetcher)
	user := userWithRole(9, "ops", "Operations")
	ctx := context.Background()

	first, err := eval.Resolve(ctx, user)
	require.NoError(t, err)
	second, err := eval.Resolve(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, first.Permissions(), second.Permissions())
	assert.Equal(t, first.Source(), second.Source())

	failing := newEvaluator(t, &countingFetcher{err: errors.New("down")})
	a, err := failing.Resolve(ctx, user)
	require.NoError(t, err)
	b, err := failing.Resolve(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, a.Permissions(), b.Permissions())
}
