// Package migrations lists the schema migrations in the order they run.
// cmd/stockroom hands All() to migration.New.
package migrations

import "github.com/shashiranjanraj/stockroom/pkg/migration"

// All returns every migration, oldest first.
func All() []migration.Entry {
	return []migration.Entry{
		{Name: "20260101000000_create_users_table", Migration: CreateUsersTable{}},
		{Name: "20260101000001_create_catalog_tables", Migration: CreateCatalogTables{}},
		{Name: "20260101000002_create_suppliers_table", Migration: CreateSuppliersTable{}},
		{Name: "20260101000003_create_products_tables", Migration: CreateProductsTables{}},
	}
}
