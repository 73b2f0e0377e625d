package models

// All returns every persistence model, in dependency order, for schema
// creation in tests and local development
func All() []any {
	return []any{
		&CategoryModel{},
		&StorageItemModel{},
		&SupplierModel{},
		&SupplierItemModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
	}
}
