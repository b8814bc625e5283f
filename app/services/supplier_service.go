package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
)

// SupplierInput is the supplier form.
type SupplierInput struct {
	Type                models.SupplierType `form:"type"                  json:"type"                  validate:"required,min=1,max=2"`
	Name                string              `form:"name"                  json:"name"                  validate:"required,max=150"`
	Phone               string              `form:"phone"                 json:"phone"                 validate:"required,max=20"`
	Address             string              `form:"address"               json:"address"               validate:"max=255"`
	ContactPerson       string              `form:"contact_person"        json:"contact_person"        validate:"max=100"`
	Website             string              `form:"website"               json:"website"               validate:"nullable,url,max=255"`
	FacebookPage        string              `form:"facebook_page"         json:"facebook_page"         validate:"nullable,url,max=255"`
	WhatsappNumber      string              `form:"whatsapp_number"       json:"whatsapp_number"       validate:"max=20"`
	MobileBankingNumber string              `form:"mobile_banking_number" json:"mobile_banking_number" validate:"max=50"`
	BankAccountNumber   string              `form:"bank_account_number"   json:"bank_account_number"   validate:"max=50"`
}

// SupplierInputFrom fills the form from an existing row.
func SupplierInputFrom(s models.Supplier) SupplierInput {
	return SupplierInput{
		Type: s.Type, Name: s.Name, Phone: s.Phone, Address: s.Address,
		ContactPerson: s.ContactPerson, Website: s.Website, FacebookPage: s.FacebookPage,
		WhatsappNumber: s.WhatsappNumber, MobileBankingNumber: s.MobileBankingNumber,
		BankAccountNumber: s.BankAccountNumber,
	}
}

func (in SupplierInput) apply(s *models.Supplier) {
	s.Type = in.Type
	s.Name = in.Name
	s.Phone = in.Phone
	s.Address = in.Address
	s.ContactPerson = in.ContactPerson
	s.Website = in.Website
	s.FacebookPage = in.FacebookPage
	s.WhatsappNumber = in.WhatsappNumber
	s.MobileBankingNumber = in.MobileBankingNumber
	s.BankAccountNumber = in.BankAccountNumber
}

// SupplierService manages wholesalers and factories.
type SupplierService struct {
	db   *gorm.DB
	repo *repositories.SupplierRepository
}

func NewSupplierService(db *gorm.DB) *SupplierService {
	return &SupplierService{db: db, repo: repositories.NewSupplierRepository(db)}
}

// List returns every supplier.
func (s *SupplierService) List(ctx context.Context) ([]models.Supplier, error) {
	return s.repo.All(ctx)
}

// Find returns supplier id or ErrNotFound.
func (s *SupplierService) Find(ctx context.Context, id uint) (*models.Supplier, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

// Save creates (id == 0) or updates supplier id.
func (s *SupplierService) Save(ctx context.Context, id uint, in SupplierInput) (*models.Supplier, error) {
	op := "update"
	if id == 0 {
		op = "create"
	}
	if errs := validate.Struct(&in); len(errs) > 0 {
		metrics.RecordCatalogWrite("suppliers", op, "invalid")
		return nil, FieldErrors(errs)
	}
	if taken, err := s.repo.NameTaken(ctx, in.Name, id); err == nil && taken {
		metrics.RecordCatalogWrite("suppliers", op, "invalid")
		return nil, FieldErrors{"name": "That name is already taken. Please choose a different one."}
	}

	var sup models.Supplier
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if id != 0 {
			var err error
			if sup, err = repo.FindByID(ctx, id); err != nil {
				return err
			}
		}
		in.apply(&sup)
		return repo.Save(ctx, &sup)
	})
	switch {
	case err == nil:
		metrics.RecordCatalogWrite("suppliers", op, "ok")
		return &sup, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	}

	err = conflict(err, "Supplier", map[string]string{"name": in.Name}, "name")
	if _, ok := AsConflict(err); ok {
		metrics.RecordCatalogWrite("suppliers", op, "conflict")
	} else {
		logger.WithCtx(ctx).Error("supplier: save failed", "id", id, "error", err)
	}
	return nil, err
}

// Delete removes supplier id unless products still reference it.
func (s *SupplierService) Delete(ctx context.Context, id uint) (*models.Supplier, error) {
	var sup models.Supplier
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if sup, err = repo.FindByID(ctx, id); err != nil {
			return err
		}
		n, err := repo.ProductCount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrInUse
		}
		return repo.Delete(ctx, id)
	})
	switch {
	case err == nil:
		metrics.RecordCatalogWrite("suppliers", "delete", "ok")
		return &sup, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case errors.Is(err, ErrInUse), database.IsForeignKeyViolation(err):
		metrics.RecordCatalogWrite("suppliers", "delete", "in_use")
		return &sup, ErrInUse
	}
	logger.WithCtx(ctx).Error("supplier: delete failed", "id", id, "error", err)
	return nil, err
}
