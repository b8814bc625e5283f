package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
)

// CatalogService manages the attribute tables (styles, categories, brands,
// materials, colors) through their descriptors.
type CatalogService struct {
	db   *gorm.DB
	repo *repositories.AttributeRepository
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db, repo: repositories.NewAttributeRepository(db)}
}

// List returns every row of a.
func (s *CatalogService) List(ctx context.Context, a repositories.Attribute) ([]repositories.Record, error) {
	return s.repo.List(ctx, a)
}

// Find returns row id of a or ErrNotFound.
func (s *CatalogService) Find(ctx context.Context, a repositories.Attribute, id uint) (*repositories.Record, error) {
	rec, err := s.repo.Find(ctx, a, id)
	if repositories.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Normalize trims input down to a's fields. Unchecked boolean fields are
// absent from a form post and become "false".
func Normalize(a repositories.Attribute, input map[string]string) map[string]string {
	out := make(map[string]string, len(a.Fields))
	for _, f := range a.Fields {
		v := strings.TrimSpace(input[f.Name])
		if f.Kind == repositories.KindBool {
			b, ok := validate.ParseBool(v)
			if ok {
				v = fmt.Sprint(b)
			}
		}
		if f.Kind == repositories.KindColor {
			v = strings.ToUpper(v)
		}
		out[f.Name] = v
	}
	return out
}

// Save creates (id == 0) or updates row id of a from input. It returns
// FieldErrors, *ConflictError, ErrNotFound or a database error.
func (s *CatalogService) Save(ctx context.Context, a repositories.Attribute, id uint, input map[string]string) (uint, error) {
	values := Normalize(a, input)
	op := "update"
	if id == 0 {
		op = "create"
	}

	if errs := s.validate(ctx, a, id, values); len(errs) > 0 {
		metrics.RecordCatalogWrite(a.Table, op, "invalid")
		return 0, errs
	}

	columns := make(map[string]interface{}, len(values))
	for _, f := range a.Fields {
		if f.Kind == repositories.KindBool {
			columns[f.Name] = values[f.Name] == "true"
			continue
		}
		columns[f.Name] = values[f.Name]
	}

	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if id == 0 {
			newID, err := repo.Create(ctx, a, columns)
			id = newID
			return err
		}
		return repo.Update(ctx, a, id, columns)
	})
	switch {
	case err == nil:
		metrics.RecordCatalogWrite(a.Table, op, "ok")
		return id, nil
	case repositories.IsNotFound(err):
		return 0, ErrNotFound
	}

	err = conflict(err, a.Singular, values, a.UniqueColumns()...)
	if _, ok := AsConflict(err); ok {
		metrics.RecordCatalogWrite(a.Table, op, "conflict")
	} else {
		logger.WithCtx(ctx).Error("catalog: save failed", "table", a.Table, "id", id, "error", err)
	}
	return 0, err
}

func (s *CatalogService) validate(ctx context.Context, a repositories.Attribute, id uint, values map[string]string) FieldErrors {
	errs := FieldErrors{}
	for _, f := range a.Fields {
		if msg := validate.Value(f.Name, values[f.Name], f.Rules); msg != "" {
			errs[f.Name] = msg
			continue
		}
		if !f.Unique {
			continue
		}
		taken, err := s.repo.Taken(ctx, a, f.Name, values[f.Name], id)
		if err != nil {
			logger.WithCtx(ctx).Warn("catalog: uniqueness check failed", "table", a.Table, "error", err)
			continue
		}
		if taken {
			errs[f.Name] = fmt.Sprintf("That %s is already taken. Please choose a different one.", strings.ToLower(f.Label))
		}
	}
	return errs
}

// Delete removes row id of a. Rows still used by products are refused
// with ErrInUse. The deleted record is returned for the flash message.
func (s *CatalogService) Delete(ctx context.Context, a repositories.Attribute, id uint) (*repositories.Record, error) {
	var rec *repositories.Record
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if rec, err = repo.Find(ctx, a, id); err != nil {
			return err
		}
		n, err := repo.References(ctx, a, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrInUse
		}
		return repo.Delete(ctx, a, id)
	})
	switch {
	case err == nil:
		metrics.RecordCatalogWrite(a.Table, "delete", "ok")
		return rec, nil
	case repositories.IsNotFound(err):
		return nil, ErrNotFound
	case errors.Is(err, ErrInUse), database.IsForeignKeyViolation(err):
		metrics.RecordCatalogWrite(a.Table, "delete", "in_use")
		return rec, ErrInUse
	}
	logger.WithCtx(ctx).Error("catalog: delete failed", "table", a.Table, "id", id, "error", err)
	return nil, err
}
