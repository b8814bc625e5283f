package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/bind"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

const suppliersPath = "/suppliers"

// SupplierController manages wholesalers and factories.
type SupplierController struct {
	base
	suppliers *services.SupplierService
}

func NewSupplierController(v *view.Renderer, suppliers *services.SupplierService) *SupplierController {
	return &SupplierController{base: base{view: v, maxBytes: bind.DefaultMaxBytes}, suppliers: suppliers}
}

// Index lists suppliers by name.
func (c *SupplierController) Index(w http.ResponseWriter, r *http.Request) {
	list, err := c.suppliers.List(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.view.Negotiate(w, r, "suppliers.html", view.Data{"Title": "Supplier Management", "Suppliers": list}, list)
}

// Edit renders the create form, or the edit form for {id}.
func (c *SupplierController) Edit(w http.ResponseWriter, r *http.Request) {
	data := c.formData(0)
	if id, ok := idParam(r); ok {
		s, err := c.suppliers.Find(r.Context(), id)
		if c.notFound(w, r, err) {
			return
		}
		if err != nil {
			c.fail(w, r, err)
			return
		}
		data = c.formData(id)
		data["Form"] = services.SupplierInputFrom(*s)
	}
	c.view.Render(w, r, http.StatusOK, "supplier_edit.html", data)
}

// Save creates or updates a supplier.
func (c *SupplierController) Save(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	var in services.SupplierInput
	errs, err := bind.Request(r, &in, c.maxBytes)
	if err != nil {
		c.view.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	data := c.formData(id)
	data["Form"] = in
	if len(errs) > 0 {
		c.invalid(w, r, "supplier_edit.html", errs, data)
		return
	}

	s, err := c.suppliers.Save(r.Context(), id, in)
	if fe, ok := services.AsFieldErrors(err); ok {
		c.invalid(w, r, "supplier_edit.html", fe, data)
		return
	}
	if ce, ok := services.AsConflict(err); ok {
		refused(w, r, suppliersPath, http.StatusConflict, flashError, ce.Error())
		return
	}
	if c.notFound(w, r, err) {
		return
	}
	if err != nil {
		c.fail(w, r, err)
		return
	}

	verb, status := "created", http.StatusCreated
	if id != 0 {
		verb, status = "updated", http.StatusOK
	}
	flash(r, flashSuccess, fmt.Sprintf("Supplier %q %s successfully.", s.Name, verb))
	done(w, r, suppliersPath, status, s)
}

// Delete removes a supplier that no product references.
func (c *SupplierController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.view.NotFound(w, r)
		return
	}
	s, err := c.suppliers.Delete(r.Context(), id)
	switch {
	case c.notFound(w, r, err):
		return
	case errors.Is(err, services.ErrInUse):
		refused(w, r, suppliersPath, http.StatusConflict, flashDanger,
			fmt.Sprintf("Supplier %q still has products and cannot be deleted.", s.Name))
		return
	case err != nil:
		c.fail(w, r, err)
		return
	}
	flash(r, flashSuccess, fmt.Sprintf("Supplier %q deleted successfully.", s.Name))
	done(w, r, suppliersPath, http.StatusOK, s)
}

func (c *SupplierController) formData(id uint) view.Data {
	return view.Data{
		"Title": "Add/Edit Supplier",
		"ID":    id,
		"Types": models.SupplierTypes(),
		"Form":  services.SupplierInput{Type: models.Wholesaler},
	}
}
