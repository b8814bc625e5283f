// Package controllers holds the HTTP handlers. Handlers bind and validate
// the request, call one service method and answer with a redirect plus a
// flash message or a rendered page.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/session"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

// Flash categories.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
	flashError   = "error"
)

// base is embedded by every controller.
type base struct {
	view     *view.Renderer
	maxBytes int64
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func flash(r *http.Request, category, message string) {
	session.FromCtx(r).Flash(category, message)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// fail answers an unexpected error with a 500 page.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.WithCtx(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	b.view.Error(w, r, http.StatusInternalServerError, "Something went wrong. Nothing was saved.")
}

// invalid re-renders page with field errors, or answers 422 JSON.
func (b base) invalid(w http.ResponseWriter, r *http.Request, page string, errs services.FieldErrors, data view.Data) {
	if response.WantsJSON(r) {
		response.ValidationError(w, errs)
		return
	}
	data["Errors"] = map[string]string(errs)
	b.view.Render(w, r, http.StatusUnprocessableEntity, page, data)
}

// done answers a successful mutation: a redirect for pages, the payload
// for JSON clients.
func done(w http.ResponseWriter, r *http.Request, to string, status int, payload interface{}) {
	if response.WantsJSON(r) {
		response.JSON(w, status, payload)
		return
	}
	redirect(w, r, to)
}

// refused answers a rejected mutation with message as a flash and a
// redirect, or a JSON error with status.
func refused(w http.ResponseWriter, r *http.Request, to string, status int, category, message string) {
	if response.WantsJSON(r) {
		response.Error(w, status, message)
		return
	}
	flash(r, category, message)
	redirect(w, r, to)
}

// notFound reports whether err is services.ErrNotFound and if so writes
// the 404 page.
func (b base) notFound(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, services.ErrNotFound) {
		b.view.NotFound(w, r)
		return true
	}
	return false
}
