package rbac_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/backoffice/internal/rbac"
)

func newRegistry(t *testing.T) *rbac.Registry {
	t.Helper()
	return rbac.NewRegistry(rbac.NewMemoryStore(), rbac.DefaultCatalog())
}

func TestRegistryCreateRoleCollapsesDuplicates(t *testing.T) {
	reg := newRegistry(t)
	role, err := reg.CreateRole(context.Background(), "operations", "Operations", []string{
		"trips.view", "Packages.View", "trips.view",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"packages.view", "trips.view"}, role.Permissions)
	assert.Equal(t, "Operations", role.DisplayName)
	assert.NotZero(t, role.ID)
}

func TestRegistryCreateRoleRejectsDuplicateName(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	_, err := reg.CreateRole(ctx, "driver", "", nil)
	require.NoError(t, err)

	_, err = reg.CreateRole(ctx, "Driver", "", nil)
	var dup *rbac.DuplicateRoleError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "Driver", dup.Name)
}

func TestRegistryCreateRoleRejectsAdminLookalikes(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	_, err := reg.CreateRole(ctx, "admin", "Administrator", nil)
	require.NoError(t, err)

	for _, name := range []string{"ａｄｍｉｎ", "ADMIN", "Admin"} {
		_, err := reg.CreateRole(ctx, name, "Temp", []string{"dashboard.view"})
		assert.ErrorIs(t, err, rbac.ErrReservedRole, name)
	}

	roles, err := reg.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "admin", roles[0].Name)
}

func TestRegistryCreateRoleRejectsUnknownPermission(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.CreateRole(context.Background(), "driver", "", []string{"trips.view", "rockets.launch"})
	var unknown *rbac.UnknownPermissionError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "rockets.launch", unknown.Key)

	_, err = reg.GetRole(context.Background(), "driver")
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}

func TestRegistryAdminAlwaysGetsWholeCatalog(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	_, err := reg.CreateRole(ctx, "admin", "Administrator", []string{"dashboard.view"})
	require.NoError(t, err)

	for _, name := range []string{"admin", "ADMIN", " Admin "} {
		perms, err := reg.GetPermissions(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, reg.Catalog().Keys(), perms, name)
	}
}

func TestRegistryUpdateAndDelete(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	_, err := reg.CreateRole(ctx, "driver", "Driver", []string{"trips.view"})
	require.NoError(t, err)

	updated, err := reg.UpdateRole(ctx, "driver", "Courier", []string{"trips.view", "trips.complete"})
	require.NoError(t, err)
	assert.Equal(t, "Courier", updated.DisplayName)

	perms, err := reg.GetPermissions(ctx, "driver")
	require.NoError(t, err)
	assert.Equal(t, []string{"trips.complete", "trips.view"}, perms)

	_, err = reg.UpdateRole(ctx, "ghost", "", nil)
	assert.ErrorIs(t, err, rbac.ErrNotFound)

	require.NoError(t, reg.DeleteRole(ctx, "driver"))
	assert.ErrorIs(t, reg.DeleteRole(ctx, "driver"), rbac.ErrNotFound)
}

func TestRegistryRefusesToDeleteAdmin(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	_, err := reg.CreateRole(ctx, "admin", "", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, reg.DeleteRole(ctx, "Admin"), rbac.ErrReservedRole)
}

func TestRegistryFetchRolePermissionsByID(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	role, err := reg.CreateRole(ctx, "sales", "Sales", []string{"sales.view"})
	require.NoError(t, err)

	perms, err := reg.FetchRolePermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales.view"}, perms)

	_, err = reg.FetchRolePermissions(ctx, role.ID+100)
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}
