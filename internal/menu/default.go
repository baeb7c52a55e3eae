package menu

import "github.com/fleetline/backoffice/internal/shared"

// DefaultTree returns the back-office navigation.
func DefaultTree() []Entry {
	return []Entry{
		{ID: "dashboard", Label: "Dashboard", Path: "/", Permission: shared.PermDashboardView},
		{
			ID:    "dispatch",
			Label: "Dispatch",
			AnyOf: []string{shared.PermPackagesView, shared.PermManifestsView, shared.PermTripsView},
			Children: []Entry{
				{ID: "packages", Label: "Packages", Path: "/packages", Permission: shared.PermPackagesView},
				{ID: "packages.new", Label: "New Package", Path: "/packages/new", Permission: shared.PermPackagesCreate},
				{ID: "manifests", Label: "Manifests", Path: "/manifests", Permission: shared.PermManifestsView},
				{ID: "trips", Label: "Trips", Path: "/trips", Permission: shared.PermTripsView},
			},
		},
		{
			ID:    "fleet",
			Label: "Fleet",
			AnyOf: []string{shared.PermVehiclesView, shared.PermLocationsView, shared.PermMachineryView, shared.PermRoutesView},
			Children: []Entry{
				{ID: "vehicles", Label: "Vehicles", Path: "/vehicles", Permission: shared.PermVehiclesView},
				{ID: "locations", Label: "Locations", Path: "/locations", Permission: shared.PermLocationsView},
				{ID: "machinery", Label: "Machinery", Path: "/machinery", Permission: shared.PermMachineryView},
				{ID: "routes", Label: "Routes", Path: "/routes", Permission: shared.PermRoutesView},
			},
		},
		{
			ID:    "warehouse",
			Label: "Warehouse",
			AnyOf: []string{shared.PermWarehouseView, shared.PermWarehouseCreate, shared.PermWarehouseEdit},
			Children: []Entry{
				{ID: "warehouse.stock", Label: "Stock", Path: "/warehouse", Permission: shared.PermWarehouseView},
				{ID: "warehouse.receive", Label: "Receive", Path: "/warehouse/receive", Permission: shared.PermWarehouseCreate},
				{ID: "stores", Label: "Stores", Path: "/stores", AnyOf: []string{shared.PermStoresView, shared.PermStoresManage}},
				{ID: "returns", Label: "Returns", Path: "/returns", AnyOf: []string{shared.PermReturnsView, shared.PermReturnsCreate, shared.PermReturnsApprove}},
			},
		},
		{
			ID:    "finance",
			Label: "Finance",
			Children: []Entry{
				{ID: "sales", Label: "Sales", Path: "/sales", Permission: shared.PermSalesView},
				{ID: "expenses", Label: "Expenses", Path: "/expenses", AnyOf: []string{shared.PermExpensesView, shared.PermExpensesCreate}},
				{ID: "payments", Label: "Record Payment", Path: "/payments/new", Permission: shared.PermPaymentsRecord},
				{ID: "reports", Label: "Reports", Path: "/reports", AnyOf: []string{shared.PermReportsView, shared.PermReportsExport}},
			},
			AnyOf: []string{shared.PermSalesView, shared.PermExpensesView, shared.PermPaymentsRecord, shared.PermReportsView},
		},
		{
			ID:    "admin",
			Label: "Administration",
			AnyOf: []string{shared.PermUsersView, shared.PermRolesView, shared.PermPermissionsView},
			Children: []Entry{
				{ID: "users", Label: "Users", Path: "/users", Permission: shared.PermUsersView},
				{ID: "roles", Label: "Roles", Path: "/roles", Permission: shared.PermRolesView},
				{ID: "permissions", Label: "Permissions", Path: "/permissions", Permission: shared.PermPermissionsView},
			},
		},
	}
}
