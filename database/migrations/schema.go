package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
)

// -------- 0001: users --------

type CreateUsersTable struct{}

func (CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- 0002: styles, categories, brands, materials, colors --------

type CreateCatalogTables struct{}

func (CreateCatalogTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Style{}, &models.Category{}, &models.Brand{}, &models.Material{}, &models.Color{})
}

func (CreateCatalogTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("colors", "materials", "brands", "categories", "styles")
}

// -------- 0003: suppliers --------

type CreateSuppliersTable struct{}

func (CreateSuppliersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Supplier{})
}

func (CreateSuppliersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("suppliers")
}

// -------- 0004: products, product_colors, product_images --------

type CreateProductsTables struct{}

func (CreateProductsTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{}, &models.ProductImage{})
}

func (CreateProductsTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("product_images", "product_colors", "products")
}
