package shared

// Sales, expense and reporting permissions declared for RBAC.
const (
	PermSalesView   = "sales.view"
	PermSalesCreate = "sales.create"
	PermSalesEdit   = "sales.edit"

	PermExpensesView    = "expenses.view"
	PermExpensesCreate  = "expenses.create"
	PermExpensesApprove = "expenses.approve"

	PermPaymentsRecord = "payments.record"

	PermReportsView   = "reports.view"
	PermReportsExport = "reports.export"
)

// FinanceScopes lists all permissions related to money movement and reporting.
func FinanceScopes() []string {
	return []string{
		PermSalesView,
		PermSalesCreate,
		PermSalesEdit,
		PermExpensesView,
		PermExpensesCreate,
		PermExpensesApprove,
		PermPaymentsRecord,
		PermReportsView,
		PermReportsExport,
	}
}

// AllScopes returns every permission key known to the back-office.
func AllScopes() []string {
	scopes := CoreScopes()
	scopes = append(scopes, DispatchScopes()...)
	scopes = append(scopes, FleetScopes()...)
	scopes = append(scopes, WarehouseScopes()...)
	return append(scopes, FinanceScopes()...)
}
