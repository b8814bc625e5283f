package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/bind"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

const (
	productsPath     = "/products"
	productsPerPage  = 20
	colorPhotoPrefix = "color_photo_"
)

// ProductController serves the product list, detail and the multipart
// product form.
type ProductController struct {
	base
	products *services.ProductService
}

// NewProductController caps request bodies at maxBytes, which has to leave
// room for every photo of one submission.
func NewProductController(v *view.Renderer, products *services.ProductService, maxBytes int64) *ProductController {
	return &ProductController{base: base{view: v, maxBytes: maxBytes}, products: products}
}

// Index lists products newest first. ?q= filters by name or keywords.
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	list, pg, err := c.products.Paginate(r.Context(), q, page, productsPerPage)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if response.WantsJSON(r) {
		response.Paginated(w, list, pg)
		return
	}
	c.view.Render(w, r, http.StatusOK, "products.html", view.Data{
		"Title":      "Products",
		"Products":   list,
		"Pagination": pg,
		"Query":      q,
	})
}

// Show renders one product with its photos.
func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.view.NotFound(w, r)
		return
	}
	p, err := c.products.Find(r.Context(), id)
	if c.notFound(w, r, err) {
		return
	}
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.view.Negotiate(w, r, "product_view.html", view.Data{"Title": p.Name, "Product": p}, p)
}

// Edit renders the create form, or the edit form for {id}.
func (c *ProductController) Edit(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	data, err := c.formData(r, id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if id != 0 {
		p, err := c.products.Find(r.Context(), id)
		if c.notFound(w, r, err) {
			return
		}
		if err != nil {
			c.fail(w, r, err)
			return
		}
		data["Form"] = services.ProductInputFrom(*p)
		data["Product"] = p
	}
	c.view.Render(w, r, http.StatusOK, "product_edit.html", data)
}

// Save creates or updates a product from a multipart form.
func (c *ProductController) Save(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	var in services.ProductInput
	errs, err := bind.Request(r, &in, c.maxBytes)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, bind.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.view.Error(w, r, status, err.Error())
		return
	}

	data, err := c.formData(r, id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	data["Form"] = in
	if len(errs) > 0 {
		c.invalid(w, r, "product_edit.html", errs, data)
		return
	}

	res, err := c.products.Save(r.Context(), id, in, photosFrom(r.MultipartForm))
	switch {
	case errors.Is(err, services.ErrBasePhotoRequired):
		c.invalid(w, r, "product_edit.html", services.FieldErrors{"base_photo": "A base photo is required for new products."}, data)
		return
	case c.notFound(w, r, err):
		return
	}
	if fe, ok := services.AsFieldErrors(err); ok {
		c.invalid(w, r, "product_edit.html", fe, data)
		return
	}
	if ce, ok := services.AsConflict(err); ok {
		refused(w, r, productsPath, http.StatusConflict, flashError, ce.Error())
		return
	}
	if err != nil {
		c.fail(w, r, err)
		return
	}

	for _, warning := range res.Warnings {
		flash(r, flashWarning, warning)
	}
	verb, status := "created", http.StatusCreated
	if id != 0 {
		verb, status = "updated", http.StatusOK
	}
	flash(r, flashSuccess, fmt.Sprintf("Product %q %s successfully.", res.Product.Name, verb))
	done(w, r, fmt.Sprintf("%s/view/%d", productsPath, res.Product.ID), status, res)
}

// Delete removes a product and its photos.
func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.view.NotFound(w, r)
		return
	}
	p, err := c.products.Delete(r.Context(), id)
	if c.notFound(w, r, err) {
		return
	}
	if err != nil {
		c.fail(w, r, err)
		return
	}
	flash(r, flashSuccess, fmt.Sprintf("Product %q deleted successfully.", p.Name))
	done(w, r, productsPath, http.StatusOK, p)
}

// DeleteImage removes one additional photo.
func (c *ProductController) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.view.NotFound(w, r)
		return
	}
	productID, err := c.products.DeleteImage(r.Context(), id)
	back := fmt.Sprintf("%s/edit/%d", productsPath, productID)
	switch {
	case c.notFound(w, r, err):
		return
	case errors.Is(err, services.ErrBasePhotoRequired):
		refused(w, r, back, http.StatusConflict, flashDanger, "The base photo can be replaced but not removed.")
		return
	case err != nil:
		c.fail(w, r, err)
		return
	}
	flash(r, flashSuccess, "Photo removed.")
	done(w, r, back, http.StatusOK, map[string]uint{"product_id": productID})
}

func (c *ProductController) formData(r *http.Request, id uint) (view.Data, error) {
	opts, err := c.products.FormOptions(r.Context())
	if err != nil {
		return nil, err
	}
	return view.Data{
		"Title":   "Add/Edit Product",
		"ID":      id,
		"Options": opts,
		"Form":    services.ProductInput{},
	}, nil
}

// photosFrom collects the uploaded files. Empty file inputs are ignored.
func photosFrom(form *multipart.Form) services.ProductPhotos {
	var photos services.ProductPhotos
	if form == nil {
		return photos
	}
	for name, headers := range form.File {
		for _, fh := range headers {
			if fh.Filename == "" {
				continue
			}
			ph := photo(fh)
			switch {
			case name == "base_photo":
				photos.Base = &ph
			case name == "additional_photos":
				photos.Additional = append(photos.Additional, ph)
			case strings.HasPrefix(name, colorPhotoPrefix):
				cid, err := strconv.ParseUint(strings.TrimPrefix(name, colorPhotoPrefix), 10, 64)
				if err != nil || cid == 0 {
					continue
				}
				if photos.ByColor == nil {
					photos.ByColor = map[uint]services.Photo{}
				}
				photos.ByColor[uint(cid)] = ph
			}
		}
	}
	return photos
}

func photo(fh *multipart.FileHeader) services.Photo {
	return services.Photo{
		Filename: fh.Filename,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}
