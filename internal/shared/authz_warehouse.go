package shared

// Warehouse, stores and returns permissions.
const (
	PermWarehouseView   = "warehouse.view"
	PermWarehouseCreate = "warehouse.create"
	PermWarehouseEdit   = "warehouse.edit"

	PermStoresView   = "stores.view"
	PermStoresManage = "stores.manage"

	PermReturnsView    = "returns.view"
	PermReturnsCreate  = "returns.create"
	PermReturnsApprove = "returns.approve"
)

// WarehouseScopes lists permissions used by warehouse and stores screens.
func WarehouseScopes() []string {
	return []string{
		PermWarehouseView,
		PermWarehouseCreate,
		PermWarehouseEdit,
		PermStoresView,
		PermStoresManage,
		PermReturnsView,
		PermReturnsCreate,
		PermReturnsApprove,
	}
}
