package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
)

// SupplierRepository handles database operations for Supplier.
type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *SupplierRepository) WithTx(tx *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: tx}
}

// All returns suppliers ordered by name.
func (r *SupplierRepository) All(ctx context.Context) ([]models.Supplier, error) {
	var out []models.Supplier
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// FindByID looks up a supplier by primary key.
func (r *SupplierRepository) FindByID(ctx context.Context, id uint) (models.Supplier, error) {
	var s models.Supplier
	err := r.db.WithContext(ctx).First(&s, id).Error
	return s, err
}

// NameTaken reports whether another supplier (id != except) is called name.
func (r *SupplierRepository) NameTaken(ctx context.Context, name string, except uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Supplier{}).Where("name = ?", name)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// Save inserts or updates s.
func (r *SupplierRepository) Save(ctx context.Context, s *models.Supplier) error {
	return r.db.WithContext(ctx).Omit("Products").Save(s).Error
}

// ProductCount returns how many products reference supplier id.
func (r *SupplierRepository) ProductCount(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("supplier_id = ?", id).Count(&n).Error
	return n, err
}

// Delete removes supplier id.
func (r *SupplierRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Supplier{}, id).Error
}

// Count returns the number of suppliers.
func (r *SupplierRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Supplier{}).Count(&n).Error
	return n, err
}

// Options returns id/name pairs for select boxes.
func (r *SupplierRepository) Options(ctx context.Context) ([]Option, error) {
	var opts []Option
	err := r.db.WithContext(ctx).Model(&models.Supplier{}).Select("id", "name").Order("name").Scan(&opts).Error
	return opts, err
}
