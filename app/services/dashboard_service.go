package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/repositories"
)

// Stats are the dashboard counters.
type Stats struct {
	Products   int64            `json:"products"`
	Suppliers  int64            `json:"suppliers"`
	Users      int64            `json:"users"`
	Attributes map[string]int64 `json:"attributes"`
}

// DashboardService aggregates row counts.
type DashboardService struct {
	products  *repositories.ProductRepository
	suppliers *repositories.SupplierRepository
	users     *repositories.UserRepository
	attrs     *repositories.AttributeRepository
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{
		products:  repositories.NewProductRepository(db),
		suppliers: repositories.NewSupplierRepository(db),
		users:     repositories.NewUserRepository(db),
		attrs:     repositories.NewAttributeRepository(db),
	}
}

// Stats counts products, suppliers, users and every attribute table.
func (s *DashboardService) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Attributes: map[string]int64{}}
	var err error
	if st.Products, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	if st.Suppliers, err = s.suppliers.Count(ctx); err != nil {
		return nil, err
	}
	if st.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	for _, a := range repositories.Attributes() {
		n, err := s.attrs.Count(ctx, a)
		if err != nil {
			return nil, err
		}
		st.Attributes[a.Key] = n
	}
	return st, nil
}
