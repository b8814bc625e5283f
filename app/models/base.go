// Package models holds the GORM models for the stockroom schema.
//
// Rows are hard-deleted: a deleted name can be used again straight away,
// so the models embed Base rather than gorm.Model (which soft-deletes).
package models

import "time"

// Base carries the columns every table has.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model in dependency order, for migrations and resets.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Style{}, &Category{}, &Brand{}, &Material{}, &Color{},
		&Supplier{},
		&Product{},
		&ProductImage{},
	}
}
