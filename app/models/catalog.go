package models

// Style, Category, Brand, Material and Color are the catalog attributes a
// product is classified by. Their names are unique per table.

type Style struct {
	Base
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

type Category struct {
	Base
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

type Brand struct {
	Base
	Name       string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	IsOwnBrand bool   `gorm:"not null;default:false"        json:"is_own_brand"`
}

type Material struct {
	Base
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

// Color carries a "#RRGGBB" swatch.
type Color struct {
	Base
	Name    string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	HexCode string `gorm:"size:7;not null;uniqueIndex"   json:"hex_code"`
}
