package shared

// Dispatch and fleet permissions declared for RBAC.
const (
	// Package permissions
	PermPackagesView   = "packages.view"
	PermPackagesCreate = "packages.create"
	PermPackagesEdit   = "packages.edit"
	PermPackagesDelete = "packages.delete"

	// Manifest permissions
	PermManifestsView   = "manifests.view"
	PermManifestsCreate = "manifests.create"
	PermManifestsEdit   = "manifests.edit"
	PermManifestsDelete = "manifests.delete"

	// Trip permissions
	PermTripsView     = "trips.view"
	PermTripsCreate   = "trips.create"
	PermTripsEdit     = "trips.edit"
	PermTripsComplete = "trips.complete"

	// Vehicle permissions
	PermVehiclesView   = "vehicles.view"
	PermVehiclesCreate = "vehicles.create"
	PermVehiclesEdit   = "vehicles.edit"
	PermVehiclesDelete = "vehicles.delete"

	PermLocationsView   = "locations.view"
	PermLocationsManage = "locations.manage"

	PermMachineryView   = "machinery.view"
	PermMachineryManage = "machinery.manage"

	PermRoutesView   = "routes.view"
	PermRoutesManage = "routes.manage"
)

// DispatchScopes lists permissions for packages, manifests and trips.
func DispatchScopes() []string {
	return []string{
		PermPackagesView,
		PermPackagesCreate,
		PermPackagesEdit,
		PermPackagesDelete,
		PermManifestsView,
		PermManifestsCreate,
		PermManifestsEdit,
		PermManifestsDelete,
		PermTripsView,
		PermTripsCreate,
		PermTripsEdit,
		PermTripsComplete,
	}
}

// FleetScopes lists permissions for vehicles, machinery, locations and routes.
func FleetScopes() []string {
	return []string{
		PermVehiclesView,
		PermVehiclesCreate,
		PermVehiclesEdit,
		PermVehiclesDelete,
		PermLocationsView,
		PermLocationsManage,
		PermMachineryView,
		PermMachineryManage,
		PermRoutesView,
		PermRoutesManage,
	}
}
