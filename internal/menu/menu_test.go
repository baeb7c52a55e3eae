package menu_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/backoffice/internal/menu"
	"github.com/fleetline/backoffice/internal/rbac"
)

func resolve(t *testing.T, role *rbac.RoleRef, perms []string, fetchErr error) rbac.AuthorizationContext {
	t.Helper()
	table, err := rbac.DefaultFallbackTable()
	require.NoError(t, err)
	eval := rbac.NewEvaluator(rbac.EvaluatorParams{
		Catalog:  rbac.DefaultCatalog(),
		Fallback: table,
		Fetcher: rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
			return perms, fetchErr
		}),
	})
	var user *rbac.CurrentUser
	if role != nil {
		user = &rbac.CurrentUser{ID: 7, Role: role}
	}
	ac, err := eval.Resolve(context.Background(), user)
	require.NoError(t, err)
	return ac
}

func ids(entries []menu.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
		out = append(out, ids(e.Children)...)
	}
	return out
}

func TestFilterAnonymousSeesNothing(t *testing.T) {
	ac := resolve(t, nil, nil, nil)
	assert.Empty(t, menu.Filter(menu.DefaultTree(), ac))
	assert.False(t, menu.IsVisible(menu.Entry{ID: "public"}, ac))
}

func TestFilterAdminSeesEverything(t *testing.T) {
	ac := resolve(t, &rbac.RoleRef{ID: 1, Name: "ADMIN"}, nil, nil)
	tree := menu.DefaultTree()
	assert.Equal(t, ids(tree), ids(menu.Filter(tree, ac)))
}

func TestWarehouseSectionVisibleThroughAnyOf(t *testing.T) {
	ac := resolve(t, &rbac.RoleRef{ID: 4, Name: "receiver"}, []string{"warehouse.create"}, nil)
	visible := menu.Filter(menu.DefaultTree(), ac)

	assert.Equal(t, []string{"warehouse", "warehouse.receive"}, ids(visible))
}

func TestParentVisibleThroughChildOnly(t *testing.T) {
	tree := []menu.Entry{{
		ID:         "ops",
		Label:      "Operations",
		Permission: "packages.view",
		Children: []menu.Entry{
			{ID: "trips", Label: "Trips", Permission: "trips.view"},
			{ID: "vehicles", Label: "Vehicles", Permission: "vehicles.view"},
		},
	}}
	ac := resolve(t, &rbac.RoleRef{ID: 3, Name: "driver"}, []string{"trips.view"}, nil)

	assert.True(t, menu.IsVisible(tree[0], ac))
	assert.Equal(t, []string{"ops", "trips"}, ids(menu.Filter(tree, ac)))
}

func TestParentOwnPermissionKeepsItWithoutChildren(t *testing.T) {
	tree := []menu.Entry{{
		ID:         "reports",
		Permission: "reports.view",
		Children:   []menu.Entry{{ID: "export", Permission: "reports.export"}},
	}}
	ac := resolve(t, &rbac.RoleRef{ID: 3, Name: "viewer"}, []string{"reports.view"}, nil)

	visible := menu.Filter(tree, ac)
	require.Len(t, visible, 1)
	assert.Empty(t, visible[0].Children)
}

func TestFilterDoesNotModifyTree(t *testing.T) {
	tree := menu.DefaultTree()
	ac := resolve(t, &rbac.RoleRef{ID: 3, Name: "driver"}, []string{"trips.view"}, nil)
	_ = menu.Filter(tree, ac)
	assert.Equal(t, menu.DefaultTree(), tree)
}

func TestFallbackMenuForStoresManager(t *testing.T) {
	ac := resolve(t, &rbac.RoleRef{ID: 9, Name: "storesrep", DisplayName: "Stores Manager"}, nil, errors.New("connection reset"))
	require.Equal(t, rbac.SourceFallback, ac.Source())

	visible := ids(menu.Filter(menu.DefaultTree(), ac))
	assert.Contains(t, visible, "dashboard")
	assert.Contains(t, visible, "stores")
	assert.Contains(t, visible, "machinery")
	assert.NotContains(t, visible, "sales")
	assert.NotContains(t, visible, "admin")
}

func TestUnknownRoleFallbackShowsDashboardOnly(t *testing.T) {
	ac := resolve(t, &rbac.RoleRef{ID: 9, Name: "temp", DisplayName: "Intern"}, nil, errors.New("timeout"))
	assert.Equal(t, []string{"dashboard"}, ids(menu.Filter(menu.DefaultTree(), ac)))
}
