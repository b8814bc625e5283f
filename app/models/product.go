package models

// ImageType tags a product photo.
type ImageType string

const (
	ImageBase       ImageType = "base"
	ImageAdditional ImageType = "additional"
)

// Product is a catalog item. Every classification column is required and
// restricts deletion of the referenced row.
type Product struct {
	Base
	Name         string `gorm:"size:255;not null;index" json:"name"`
	Description  string `gorm:"type:text"               json:"description"`
	FacebookPost string `gorm:"size:255"                json:"facebook_post"`
	YoutubeVideo string `gorm:"size:255"                json:"youtube_video"`
	Keywords     string `gorm:"size:255"                json:"keywords"`

	StyleID    uint `gorm:"not null;index" json:"style_id"`
	CategoryID uint `gorm:"not null;index" json:"category_id"`
	BrandID    uint `gorm:"not null;index" json:"brand_id"`
	MaterialID uint `gorm:"not null;index" json:"material_id"`
	SupplierID uint `gorm:"not null;index" json:"supplier_id"`

	Style    *Style    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"style,omitempty"`
	Category *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty"`
	Brand    *Brand    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"brand,omitempty"`
	Material *Material `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"material,omitempty"`
	Supplier *Supplier `json:"supplier,omitempty"`

	Colors []Color        `gorm:"many2many:product_colors;constraint:OnDelete:CASCADE;" json:"colors,omitempty"`
	Images []ProductImage `gorm:"constraint:OnDelete:CASCADE;"                          json:"images,omitempty"`
}

// BasePhoto returns the product's base image, or nil.
func (p *Product) BasePhoto() *ProductImage {
	for i := range p.Images {
		if p.Images[i].Type == ImageBase {
			return &p.Images[i]
		}
	}
	return nil
}

// AdditionalPhotos returns every non-base image.
func (p *Product) AdditionalPhotos() []ProductImage {
	var out []ProductImage
	for _, img := range p.Images {
		if img.Type != ImageBase {
			out = append(out, img)
		}
	}
	return out
}

// HasColor reports whether id is among the product's colors.
func (p *Product) HasColor(id uint) bool {
	for _, c := range p.Colors {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ProductImage is one stored photo; FilePath is relative to the upload
// root ("{slug}/{prefix}-{hex}.{ext}").
type ProductImage struct {
	Base
	ProductID uint      `gorm:"not null;index"  json:"product_id"`
	Type      ImageType `gorm:"size:20;not null" json:"type"`
	FilePath  string    `gorm:"size:255;not null" json:"file_path"`
	ColorID   *uint     `gorm:"index"           json:"color_id,omitempty"`
	Color     *Color    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"color,omitempty"`

	// URL is filled from the storage disk when the image is served.
	URL string `gorm:"-" json:"url,omitempty"`
}
