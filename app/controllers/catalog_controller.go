package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/bind"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

// CatalogController serves every catalog attribute. Each handler method
// takes the attribute descriptor and returns the handler for it.
type CatalogController struct {
	base
	catalog *services.CatalogService
}

func NewCatalogController(v *view.Renderer, catalog *services.CatalogService) *CatalogController {
	return &CatalogController{base: base{view: v, maxBytes: bind.DefaultMaxBytes}, catalog: catalog}
}

func listPath(a repositories.Attribute) string { return "/products/" + a.Key }

// Index lists the rows of a.
func (c *CatalogController) Index(a repositories.Attribute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := c.catalog.List(r.Context(), a)
		if err != nil {
			c.fail(w, r, err)
			return
		}
		c.view.Negotiate(w, r, "catalog.html", view.Data{
			"Title":     a.Title() + " Management",
			"Attribute": a,
			"Items":     recs,
		}, recs)
	}
}

// Edit renders the create form, or the edit form for {id}.
func (c *CatalogController) Edit(a repositories.Attribute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := c.formData(a, 0, map[string]string{})
		if id, ok := idParam(r); ok {
			rec, err := c.catalog.Find(r.Context(), a, id)
			if c.notFound(w, r, err) {
				return
			}
			if err != nil {
				c.fail(w, r, err)
				return
			}
			data = c.formData(a, id, rec.Values)
		}
		c.view.Render(w, r, http.StatusOK, "catalog_edit.html", data)
	}
}

// Save creates or updates a row of a.
func (c *CatalogController) Save(a repositories.Attribute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := idParam(r)
		if err := bind.ParseForm(r, c.maxBytes); err != nil {
			c.view.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
		input := make(map[string]string, len(a.Fields))
		for _, f := range a.Fields {
			input[f.Name] = r.PostForm.Get(f.Name)
			if vs := r.PostForm[f.Name]; len(vs) > 1 {
				input[f.Name] = vs[len(vs)-1]
			}
		}
		data := c.formData(a, id, services.Normalize(a, input))

		newID, err := c.catalog.Save(r.Context(), a, id, input)
		if fe, ok := services.AsFieldErrors(err); ok {
			c.invalid(w, r, "catalog_edit.html", fe, data)
			return
		}
		if ce, ok := services.AsConflict(err); ok {
			refused(w, r, listPath(a), http.StatusConflict, flashError, ce.Error())
			return
		}
		if c.notFound(w, r, err) {
			return
		}
		if err != nil {
			c.fail(w, r, err)
			return
		}

		msg, status := a.Singular+" created successfully.", http.StatusCreated
		if id != 0 {
			msg, status = a.Singular+" updated successfully.", http.StatusOK
		}
		flash(r, flashSuccess, msg)
		done(w, r, listPath(a), status, map[string]interface{}{"id": newID})
	}
}

// Delete removes a row of a unless products use it.
func (c *CatalogController) Delete(a repositories.Attribute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			c.view.NotFound(w, r)
			return
		}
		rec, err := c.catalog.Delete(r.Context(), a, id)
		switch {
		case c.notFound(w, r, err):
			return
		case errors.Is(err, services.ErrInUse):
			refused(w, r, listPath(a), http.StatusConflict, flashDanger,
				fmt.Sprintf("%s %q is used by products and cannot be deleted.", a.Singular, rec.Get("name")))
			return
		case err != nil:
			c.fail(w, r, err)
			return
		}
		flash(r, flashSuccess, fmt.Sprintf("%s %q deleted successfully.", a.Singular, rec.Get("name")))
		done(w, r, listPath(a), http.StatusOK, rec)
	}
}

func (c *CatalogController) formData(a repositories.Attribute, id uint, values map[string]string) view.Data {
	return view.Data{
		"Title":     "Edit " + a.Title(),
		"Attribute": a,
		"ID":        id,
		"Form":      values,
	}
}
