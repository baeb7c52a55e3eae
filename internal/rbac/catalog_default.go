package rbac

import "github.com/fleetline/backoffice/internal/shared"

var defaultDescriptions = []struct {
	key         string
	description string
}{
	// Core platform
	{shared.PermDashboardView, "View dashboard"},
	{shared.PermUsersView, "View users"},
	{shared.PermUsersEdit, "Manage users and role assignments"},
	{shared.PermRolesView, "View roles"},
	{shared.PermRolesEdit, "Manage roles"},
	{shared.PermPermissionsView, "View permission catalog"},

	// Dispatch
	{shared.PermPackagesView, "View packages"},
	{shared.PermPackagesCreate, "Register packages"},
	{shared.PermPackagesEdit, "Edit packages"},
	{shared.PermPackagesDelete, "Delete packages"},
	{shared.PermManifestsView, "View manifests"},
	{shared.PermManifestsCreate, "Create manifests"},
	{shared.PermManifestsEdit, "Edit manifests"},
	{shared.PermManifestsDelete, "Delete manifests"},
	{shared.PermTripsView, "View trips"},
	{shared.PermTripsCreate, "Schedule trips"},
	{shared.PermTripsEdit, "Edit trips"},
	{shared.PermTripsComplete, "Mark trips complete"},

	// Fleet
	{shared.PermVehiclesView, "View vehicles"},
	{shared.PermVehiclesCreate, "Register vehicles"},
	{shared.PermVehiclesEdit, "Edit vehicles"},
	{shared.PermVehiclesDelete, "Retire vehicles"},
	{shared.PermLocationsView, "View locations"},
	{shared.PermLocationsManage, "Manage locations"},
	{shared.PermMachineryView, "View machinery"},
	{shared.PermMachineryManage, "Manage machinery"},
	{shared.PermRoutesView, "View routes"},
	{shared.PermRoutesManage, "Plan and edit routes"},

	// Warehouse
	{shared.PermWarehouseView, "View warehouse stock"},
	{shared.PermWarehouseCreate, "Receive stock into warehouse"},
	{shared.PermWarehouseEdit, "Adjust warehouse stock"},
	{shared.PermStoresView, "View stores"},
	{shared.PermStoresManage, "Manage stores"},
	{shared.PermReturnsView, "View returns"},
	{shared.PermReturnsCreate, "Record returns"},
	{shared.PermReturnsApprove, "Approve returns"},

	// Finance
	{shared.PermSalesView, "View sales"},
	{shared.PermSalesCreate, "Record sales"},
	{shared.PermSalesEdit, "Edit sales"},
	{shared.PermExpensesView, "View expenses"},
	{shared.PermExpensesCreate, "Record expenses"},
	{shared.PermExpensesApprove, "Approve expenses"},
	{shared.PermPaymentsRecord, "Record payments"},
	{shared.PermReportsView, "View reports"},
	{shared.PermReportsExport, "Export reports"},
}

// DefaultCatalog returns the bundled logistics permission catalog.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, d := range defaultDescriptions {
		if err := c.RegisterKey(d.key, d.description); err != nil {
			panic(err)
		}
	}
	return c
}
