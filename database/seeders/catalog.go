package seeders

import (
	"context"
	"io"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/stockroom/app/models"
)

// Catalog inserts a starter set of attributes. Existing names are left alone.
func Catalog(ctx context.Context, db *gorm.DB, _ io.Writer) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip := tx.Clauses(clause.OnConflict{DoNothing: true})

		styles := []models.Style{{Name: "Casual"}, {Name: "Formal"}, {Name: "Sport"}}
		categories := []models.Category{{Name: "Shirts"}, {Name: "Trousers"}, {Name: "Shoes"}}
		brands := []models.Brand{{Name: "House Label", IsOwnBrand: true}, {Name: "Generic"}}
		materials := []models.Material{{Name: "Cotton"}, {Name: "Leather"}, {Name: "Polyester"}}
		colors := []models.Color{
			{Name: "Black", HexCode: "#000000"},
			{Name: "White", HexCode: "#FFFFFF"},
			{Name: "Navy", HexCode: "#000080"},
		}

		for _, rows := range []interface{}{&styles, &categories, &brands, &materials, &colors} {
			if err := skip.Create(rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
