package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/bind"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

const usersPath = "/users"

const (
	msgEditSuperAdmin   = "Cannot edit the SuperAdmin account via this interface."
	msgDeleteSuperAdmin = "Cannot delete the SuperAdmin account."
)

// UserController is the SuperAdmin's user management.
type UserController struct {
	base
	users *services.UserService
}

func NewUserController(v *view.Renderer, users *services.UserService) *UserController {
	return &UserController{base: base{view: v, maxBytes: bind.DefaultMaxBytes}, users: users}
}

// Index lists Admin and Moderator accounts.
func (c *UserController) Index(w http.ResponseWriter, r *http.Request) {
	list, err := c.users.List(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.view.Negotiate(w, r, "users.html", view.Data{"Title": "User Management", "Users": list}, list)
}

// Edit renders the create form, or the edit form for {id}.
func (c *UserController) Edit(w http.ResponseWriter, r *http.Request) {
	data := c.formData(0)
	if id, ok := idParam(r); ok {
		u, err := c.users.Editable(r.Context(), id)
		if c.refuse(w, r, err, msgEditSuperAdmin) {
			return
		}
		data = c.formData(id)
		data["Form"] = services.UserInputFrom(*u)
	}
	c.view.Render(w, r, http.StatusOK, "user_edit.html", data)
}

// Save creates or updates a user.
func (c *UserController) Save(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	if id != 0 {
		if _, err := c.users.Editable(r.Context(), id); c.refuse(w, r, err, msgEditSuperAdmin) {
			return
		}
	}

	var in services.UserInput
	errs, err := bind.Request(r, &in, c.maxBytes)
	if err != nil {
		c.view.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	data := c.formData(id)
	data["Form"] = in
	if len(errs) > 0 {
		c.invalid(w, r, "user_edit.html", errs, data)
		return
	}

	u, err := c.users.Save(r.Context(), id, in)
	if fe, ok := services.AsFieldErrors(err); ok {
		c.invalid(w, r, "user_edit.html", fe, data)
		return
	}
	if ce, ok := services.AsConflict(err); ok {
		refused(w, r, usersPath, http.StatusConflict, flashError, ce.Error())
		return
	}
	if c.refuse(w, r, err, msgEditSuperAdmin) {
		return
	}

	msg, status := "New user created successfully.", http.StatusCreated
	if id != 0 {
		msg, status = "User updated successfully.", http.StatusOK
	}
	flash(r, flashSuccess, msg)
	done(w, r, usersPath, status, u)
}

// Delete removes a user.
func (c *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.view.NotFound(w, r)
		return
	}
	u, err := c.users.Delete(r.Context(), id)
	if c.refuse(w, r, err, msgDeleteSuperAdmin) {
		return
	}
	flash(r, flashSuccess, fmt.Sprintf("User %q deleted successfully.", u.Username))
	done(w, r, usersPath, http.StatusOK, u)
}

// refuse writes the answer for a non-nil err and reports whether it did.
func (c *UserController) refuse(w http.ResponseWriter, r *http.Request, err error, protected string) bool {
	switch {
	case err == nil:
		return false
	case c.notFound(w, r, err):
	case errors.Is(err, services.ErrSuperAdminProtected):
		refused(w, r, usersPath, http.StatusForbidden, flashDanger, protected)
	default:
		c.fail(w, r, err)
	}
	return true
}

func (c *UserController) formData(id uint) view.Data {
	return view.Data{
		"Title": "Add/Edit User",
		"ID":    id,
		"Roles": rbac.Assignable(),
		"Form":  services.UserInput{Role: rbac.Moderator},
	}
}
