package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/response"
)

// ProductRepository handles database operations for Product and its images.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Style").Preload("Category").Preload("Brand").
		Preload("Material").Preload("Supplier").
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("colors.name") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Images.Color")
}

// FindByID loads a product with every association.
func (r *ProductRepository) FindByID(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := r.withDetails(ctx).First(&p, id).Error
	return p, err
}

// Paginate returns one page of products, newest first. search filters by
// name or keywords when non-empty.
func (r *ProductRepository) Paginate(ctx context.Context, search string, page, perPage int) ([]models.Product, response.Pagination, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Product{})
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("name LIKE ? OR keywords LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, response.Pagination{}, err
	}
	pg := response.NewPagination(page, perPage, total)

	var out []models.Product
	err := filtered().
		Preload("Style").Preload("Category").Preload("Brand").Preload("Supplier").
		Preload("Images", "type = ?", models.ImageBase).
		Order("id DESC").
		Offset(pg.Offset()).Limit(pg.PerPage).
		Find(&out).Error
	return out, pg, err
}

// Create inserts p without touching its associations.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// Update writes p's own columns.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

// ReplaceColors sets the product's colors to exactly colors.
func (r *ProductRepository) ReplaceColors(ctx context.Context, p *models.Product, colors []models.Color) error {
	return r.db.WithContext(ctx).Model(p).Omit("Colors.*").Association("Colors").Replace(colors)
}

// AddImage inserts one image row.
func (r *ProductRepository) AddImage(ctx context.Context, img *models.ProductImage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(img).Error
}

// Images returns the product's images of type t (all types when t is empty).
func (r *ProductRepository) Images(ctx context.Context, productID uint, t models.ImageType) ([]models.ProductImage, error) {
	var out []models.ProductImage
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if t != "" {
		q = q.Where("type = ?", t)
	}
	err := q.Order("id").Find(&out).Error
	return out, err
}

// FindImage looks up an image by primary key.
func (r *ProductRepository) FindImage(ctx context.Context, id uint) (models.ProductImage, error) {
	var img models.ProductImage
	err := r.db.WithContext(ctx).First(&img, id).Error
	return img, err
}

// DeleteImages removes the image rows with ids.
func (r *ProductRepository) DeleteImages(ctx context.Context, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&models.ProductImage{}, ids).Error
}

// Delete removes product id together with its color links and image rows.
// Foreign keys cascade as well; the explicit deletes keep drivers without
// enforced constraints consistent.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM product_colors WHERE product_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Exists reports whether table has a row with id. table must be a trusted
// constant.
func (r *ProductRepository) Exists(ctx context.Context, table string, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Colors loads the colors with ids.
func (r *ProductRepository) Colors(ctx context.Context, ids []uint) ([]models.Color, error) {
	var out []models.Color
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&out).Error
	return out, err
}

// AllColors returns every color ordered by name.
func (r *ProductRepository) AllColors(ctx context.Context) ([]models.Color, error) {
	var out []models.Color
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// Count returns the number of products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}
