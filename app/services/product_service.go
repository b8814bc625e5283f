package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/event"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/upload"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
)

// EventImagesDiscarded carries the []string of stored image paths that no
// row references any more, after commit or after a rolled back save.
const EventImagesDiscarded = "product.images.discarded"

// ProductInput is the product form. Photos arrive separately.
type ProductInput struct {
	Name         string `form:"name"          json:"name"          validate:"required,max=255"`
	Description  string `form:"description"   json:"description"`
	FacebookPost string `form:"facebook_post" json:"facebook_post" validate:"nullable,url,max=255"`
	YoutubeVideo string `form:"youtube_video" json:"youtube_video" validate:"nullable,url,max=255"`
	Keywords     string `form:"keywords"      json:"keywords"      validate:"max=255"`
	StyleID      uint   `form:"style_id"      json:"style_id"      validate:"required"`
	CategoryID   uint   `form:"category_id"   json:"category_id"   validate:"required"`
	BrandID      uint   `form:"brand_id"      json:"brand_id"      validate:"required"`
	MaterialID   uint   `form:"material_id"   json:"material_id"   validate:"required"`
	SupplierID   uint   `form:"supplier_id"   json:"supplier_id"   validate:"required"`
	ColorIDs     []uint `form:"colors"        json:"colors"        validate:"required"`
}

// ProductInputFrom fills the form from an existing product.
func ProductInputFrom(p models.Product) ProductInput {
	in := ProductInput{
		Name: p.Name, Description: p.Description, FacebookPost: p.FacebookPost,
		YoutubeVideo: p.YoutubeVideo, Keywords: p.Keywords,
		StyleID: p.StyleID, CategoryID: p.CategoryID, BrandID: p.BrandID,
		MaterialID: p.MaterialID, SupplierID: p.SupplierID,
	}
	for _, c := range p.Colors {
		in.ColorIDs = append(in.ColorIDs, c.ID)
	}
	return in
}

// HasColor reports whether id is selected.
func (in ProductInput) HasColor(id uint) bool {
	for _, c := range in.ColorIDs {
		if c == id {
			return true
		}
	}
	return false
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.FacebookPost = in.FacebookPost
	p.YoutubeVideo = in.YoutubeVideo
	p.Keywords = in.Keywords
	p.StyleID = in.StyleID
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
	p.MaterialID = in.MaterialID
	p.SupplierID = in.SupplierID
}

// Photo is one uploaded file. Open may be called from another goroutine.
type Photo struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// ProductPhotos are the files submitted with a product form.
type ProductPhotos struct {
	Base       *Photo
	Additional []Photo
	ByColor    map[uint]Photo
}

// ProductResult is a saved product plus the non-fatal image problems.
type ProductResult struct {
	Product  *models.Product
	Warnings []string
}

// ProductFormOptions are the choices offered by the product form.
type ProductFormOptions struct {
	Styles     []repositories.Option `json:"styles"`
	Categories []repositories.Option `json:"categories"`
	Brands     []repositories.Option `json:"brands"`
	Materials  []repositories.Option `json:"materials"`
	Suppliers  []repositories.Option `json:"suppliers"`
	Colors     []models.Color        `json:"colors"`
}

// ProductService creates, updates and deletes products and their photos.
type ProductService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	attrs    *repositories.AttributeRepository
	supplier *repositories.SupplierRepository
	images   *upload.Pipeline
	pool     *workerpool.Pool
	bus      *event.Bus
}

func NewProductService(db *gorm.DB, images *upload.Pipeline, pool *workerpool.Pool, bus *event.Bus) *ProductService {
	return &ProductService{
		db:       db,
		products: repositories.NewProductRepository(db),
		attrs:    repositories.NewAttributeRepository(db),
		supplier: repositories.NewSupplierRepository(db),
		images:   images,
		pool:     pool,
		bus:      bus,
	}
}

// RegisterListeners removes discarded image files once their rows are gone.
func RegisterListeners(bus *event.Bus, images *upload.Pipeline) {
	bus.Listen(EventImagesDiscarded, func(ctx context.Context, payload interface{}) {
		paths, _ := payload.([]string)
		for _, p := range paths {
			if err := images.Remove(ctx, p); err != nil {
				logger.WithCtx(ctx).Warn("product: remove discarded image", "path", p, "error", err)
			}
		}
	})
}

// Paginate lists products.
func (s *ProductService) Paginate(ctx context.Context, search string, page, perPage int) ([]models.Product, response.Pagination, error) {
	list, pg, err := s.products.Paginate(ctx, search, page, perPage)
	for i := range list {
		s.addURLs(&list[i])
	}
	return list, pg, err
}

func (s *ProductService) addURLs(p *models.Product) {
	for i := range p.Images {
		p.Images[i].URL = s.images.URL(p.Images[i].FilePath)
	}
}

// Find returns product id with every association, or ErrNotFound.
func (s *ProductService) Find(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.addURLs(&p)
	return &p, nil
}

// FormOptions loads the select box choices.
func (s *ProductService) FormOptions(ctx context.Context) (*ProductFormOptions, error) {
	opts := &ProductFormOptions{}
	lists := map[string]*[]repositories.Option{
		"styles": &opts.Styles, "categories": &opts.Categories,
		"brands": &opts.Brands, "materials": &opts.Materials,
	}
	for key, dst := range lists {
		a, _ := repositories.AttributeByKey(key)
		o, err := s.attrs.Options(ctx, a)
		if err != nil {
			return nil, err
		}
		*dst = o
	}
	var err error
	if opts.Suppliers, err = s.supplier.Options(ctx); err != nil {
		return nil, err
	}
	if opts.Colors, err = s.products.AllColors(ctx); err != nil {
		return nil, err
	}
	return opts, nil
}

// Save creates (id == 0) or updates product id in one transaction. A base
// photo is required on create. Image failures other than the base photo on
// create become warnings. Files written for a rolled back transaction are
// removed before Save returns.
func (s *ProductService) Save(ctx context.Context, id uint, in ProductInput, photos ProductPhotos) (*ProductResult, error) {
	creating := id == 0
	op := "update"
	if creating {
		op = "create"
	}

	errs := FieldErrors(validate.Struct(&in))
	if photos.Base != nil && !s.images.Allowed(photos.Base.Filename) {
		errs["base_photo"] = "Allowed file types are PNG, JPG, JPEG."
	}
	if len(errs) > 0 {
		metrics.RecordCatalogWrite("products", op, "invalid")
		return nil, errs
	}

	var (
		mu        sync.Mutex
		written   []string
		discarded []string
		result    = &ProductResult{}
	)
	track := func(path string) {
		mu.Lock()
		written = append(written, path)
		mu.Unlock()
	}

	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.products.WithTx(tx)

		if fe := s.checkReferences(ctx, repo, in); len(fe) > 0 {
			return fe
		}
		colors, err := repo.Colors(ctx, in.ColorIDs)
		if err != nil {
			return err
		}
		if len(colors) != len(distinct(in.ColorIDs)) {
			return FieldErrors{"colors": "The selected colors are invalid."}
		}

		var p models.Product
		if !creating {
			if p, err = repo.FindByID(ctx, id); err != nil {
				return err
			}
		}
		in.apply(&p)

		if creating && photos.Base == nil {
			return ErrBasePhotoRequired
		}

		if creating {
			err = repo.Create(ctx, &p)
		} else {
			err = repo.Update(ctx, &p)
		}
		if err != nil {
			return err
		}
		if err := repo.ReplaceColors(ctx, &p, colors); err != nil {
			return err
		}

		slug := upload.Slugify(p.Name)

		if photos.Base != nil {
			path, err := s.store(ctx, *photos.Base, slug, "base")
			switch {
			case err != nil && creating:
				return FieldErrors{"base_photo": "The base photo could not be processed."}
			case err != nil:
				result.Warnings = append(result.Warnings, fmt.Sprintf("Base photo %q was not saved.", photos.Base.Filename))
			default:
				track(path)
				old, err := repo.Images(ctx, p.ID, models.ImageBase)
				if err != nil {
					return err
				}
				ids := make([]uint, 0, len(old))
				for _, img := range old {
					ids = append(ids, img.ID)
					discarded = append(discarded, img.FilePath)
				}
				if err := repo.DeleteImages(ctx, ids...); err != nil {
					return err
				}
				if err := repo.AddImage(ctx, &models.ProductImage{ProductID: p.ID, Type: models.ImageBase, FilePath: path}); err != nil {
					return err
				}
			}
		}

		paths := make([]string, len(photos.Additional))
		failed := make([]error, len(photos.Additional))
		tasks := make([]func(), len(photos.Additional))
		for i := range photos.Additional {
			tasks[i] = func() {
				paths[i], failed[i] = s.store(ctx, photos.Additional[i], slug, "additional")
				if failed[i] == nil {
					track(paths[i])
				}
			}
		}
		s.run(tasks)
		for i, ph := range photos.Additional {
			if failed[i] != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Additional photo %q was skipped.", ph.Filename))
				continue
			}
			if err := repo.AddImage(ctx, &models.ProductImage{ProductID: p.ID, Type: models.ImageAdditional, FilePath: paths[i]}); err != nil {
				return err
			}
		}

		colorIDs := make([]uint, 0, len(photos.ByColor))
		for cid := range photos.ByColor {
			colorIDs = append(colorIDs, cid)
		}
		sort.Slice(colorIDs, func(i, j int) bool { return colorIDs[i] < colorIDs[j] })
		for _, cid := range colorIDs {
			ph := photos.ByColor[cid]
			if !in.HasColor(cid) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Photo %q belongs to a color that is not selected and was skipped.", ph.Filename))
				continue
			}
			path, err := s.store(ctx, ph, slug, "additional")
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Color photo %q was skipped.", ph.Filename))
				continue
			}
			track(path)
			colorID := cid
			if err := repo.AddImage(ctx, &models.ProductImage{ProductID: p.ID, Type: models.ImageAdditional, FilePath: path, ColorID: &colorID}); err != nil {
				return err
			}
		}

		result.Product = &p
		return nil
	})

	if err != nil {
		s.removeNow(ctx, written)
		return nil, s.saveError(ctx, op, id, in, err)
	}

	metrics.RecordCatalogWrite("products", op, "ok")
	if len(discarded) > 0 {
		s.bus.FireAsync(ctx, EventImagesDiscarded, discarded)
	}
	for _, w := range result.Warnings {
		logger.WithCtx(ctx).Warn("product: image skipped", "product_id", result.Product.ID, "detail", w)
	}
	if fresh, err := s.Find(ctx, result.Product.ID); err == nil {
		result.Product = fresh
	}
	return result, nil
}

func (s *ProductService) saveError(ctx context.Context, op string, id uint, in ProductInput, err error) error {
	if fe, ok := AsFieldErrors(err); ok {
		metrics.RecordCatalogWrite("products", op, "invalid")
		return fe
	}
	switch {
	case errors.Is(err, ErrBasePhotoRequired):
		metrics.RecordCatalogWrite("products", op, "invalid")
		return ErrBasePhotoRequired
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	err = conflict(err, "Product", map[string]string{"name": in.Name}, "name")
	if _, ok := AsConflict(err); ok {
		metrics.RecordCatalogWrite("products", op, "conflict")
		return err
	}
	logger.WithCtx(ctx).Error("product: save failed", "id", id, "error", err)
	return err
}

func (s *ProductService) checkReferences(ctx context.Context, repo *repositories.ProductRepository, in ProductInput) FieldErrors {
	errs := FieldErrors{}
	refs := []struct {
		field, table, label string
		id                  uint
	}{
		{"style_id", "styles", "style", in.StyleID},
		{"category_id", "categories", "category", in.CategoryID},
		{"brand_id", "brands", "brand", in.BrandID},
		{"material_id", "materials", "material", in.MaterialID},
		{"supplier_id", "suppliers", "supplier", in.SupplierID},
	}
	for _, ref := range refs {
		ok, err := repo.Exists(ctx, ref.table, ref.id)
		if err != nil || !ok {
			errs[ref.field] = fmt.Sprintf("The selected %s is invalid.", ref.label)
		}
	}
	return errs
}

func (s *ProductService) store(ctx context.Context, ph Photo, slug, prefix string) (string, error) {
	if ph.Open == nil {
		return "", upload.ErrNoFile
	}
	rc, err := ph.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.images.Save(ctx, rc, ph.Filename, slug, prefix)
}

func (s *ProductService) run(tasks []func()) {
	if s.pool == nil {
		for _, t := range tasks {
			t()
		}
		return
	}
	s.pool.RunAll(tasks...)
}

// removeNow deletes the files of a rolled back save before Save returns.
func (s *ProductService) removeNow(ctx context.Context, paths []string) {
	if len(paths) > 0 {
		s.bus.Fire(ctx, EventImagesDiscarded, paths)
	}
}

// Delete removes product id with its images. Stored files are removed after
// commit.
func (s *ProductService) Delete(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.products.WithTx(tx)
		var err error
		if p, err = repo.FindByID(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.WithCtx(ctx).Error("product: delete failed", "id", id, "error", err)
		return nil, err
	}
	metrics.RecordCatalogWrite("products", "delete", "ok")

	paths := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		paths = append(paths, img.FilePath)
	}
	if len(paths) > 0 {
		s.bus.FireAsync(ctx, EventImagesDiscarded, paths)
	}
	return &p, nil
}

// DeleteImage removes one additional photo and returns its product id. The
// base photo can only be replaced, never removed.
func (s *ProductService) DeleteImage(ctx context.Context, imageID uint) (uint, error) {
	var img models.ProductImage
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.products.WithTx(tx)
		var err error
		if img, err = repo.FindImage(ctx, imageID); err != nil {
			return err
		}
		if img.Type == models.ImageBase {
			return ErrBasePhotoRequired
		}
		return repo.DeleteImages(ctx, img.ID)
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, ErrNotFound
	case err != nil:
		return img.ProductID, err
	}
	s.bus.FireAsync(ctx, EventImagesDiscarded, []string{img.FilePath})
	return img.ProductID, nil
}

func distinct(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
