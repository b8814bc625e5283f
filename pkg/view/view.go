// Package view renders the server-side HTML pages.
//
// Each page template is parsed together with layout.html into its own set,
// so pages can define the same block names ("title", "content") without
// clashing. Sets are parsed once at startup.
//
//	v, err := view.New(resources.Views, "views", nil)
//	v.Render(w, r, http.StatusOK, "suppliers.html", view.Data{"Suppliers": list})
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/session"
)

const layoutName = "layout.html"

// ErrorPage is the template used by Error.
const ErrorPage = "error.html"

// Data is the template payload. Render adds Principal, Can, Flashes, Errors,
// Path and Year when they are absent.
type Data map[string]interface{}

// Renderer holds the parsed page sets.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every *.html below dir in fsys. extra is merged into the
// default func map and may override it.
func New(fsys fs.FS, dir string, extra template.FuncMap) (*Renderer, error) {
	funcs := Funcs()
	for k, f := range extra {
		funcs[k] = f
	}

	layout, err := fs.ReadFile(fsys, path.Join(dir, layoutName))
	if err != nil {
		return nil, fmt.Errorf("view: read layout: %w", err)
	}

	names, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("view: list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, full := range names {
		name := path.Base(full)
		if name == layoutName {
			continue
		}
		body, err := fs.ReadFile(fsys, full)
		if err != nil {
			return nil, fmt.Errorf("view: read %s: %w", name, err)
		}
		t, err := template.New(layoutName).Funcs(funcs).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("view: parse layout: %w", err)
		}
		if _, err := t.New(name).Parse(string(body)); err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Has reports whether a page named name was parsed.
func (v *Renderer) Has(name string) bool {
	_, ok := v.pages[name]
	return ok
}

// Render writes page name with status. Output is buffered so a template
// error still yields a clean 500.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data Data) {
	t, ok := v.pages[name]
	if !ok {
		logger.WithCtx(r.Context()).Error("view: unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName, v.defaults(r, data)); err != nil {
		logger.WithCtx(r.Context()).Error("view: render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Negotiate answers with the JSON envelope when the client asked for
// application/json, else with the rendered page.
func (v *Renderer) Negotiate(w http.ResponseWriter, r *http.Request, name string, data Data, payload interface{}) {
	if response.WantsJSON(r) {
		response.Success(w, payload)
		return
	}
	v.Render(w, r, http.StatusOK, name, data)
}

// Error writes an error page (or JSON error) with status.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	if response.WantsJSON(r) || !v.Has(ErrorPage) {
		response.Error(w, status, message)
		return
	}
	v.Render(w, r, status, ErrorPage, Data{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// Forbidden is a rbac.DenyFunc rendering the 403 page.
func (v *Renderer) Forbidden(w http.ResponseWriter, r *http.Request) {
	v.Error(w, r, http.StatusForbidden, "You do not have permission to access this page.")
}

// NotFound renders the 404 page.
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	v.Error(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
}

func (v *Renderer) defaults(r *http.Request, data Data) Data {
	if data == nil {
		data = Data{}
	}
	p := rbac.PrincipalFrom(r.Context())
	setDefault(data, "Principal", p)
	setDefault(data, "Can", map[string]bool{
		"ReadCatalog":  rbac.ReadCatalog(p),
		"WriteCatalog": rbac.WriteCatalog(p),
		"ManageUsers":  rbac.ManageUsers(p),
	})
	setDefault(data, "Errors", map[string]string{})
	setDefault(data, "Form", map[string]string{})
	setDefault(data, "Path", r.URL.Path)
	setDefault(data, "Year", time.Now().Year())
	if _, ok := data["Flashes"]; !ok {
		data["Flashes"] = session.FromCtx(r).Flashes()
	}
	return data
}

func setDefault(data Data, key string, value interface{}) {
	if _, ok := data[key]; !ok {
		data[key] = value
	}
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"roleName": func(r rbac.Role) string { return r.String() },
		"title":    title,
		"join":     strings.Join,
		"add":      func(a, b int) int { return a + b },
		"flashClass": func(category string) string {
			if category == "error" {
				return "danger"
			}
			return category
		},
		"dict": func(values ...interface{}) map[string]interface{} {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
		// The kernel swaps in the active disk's URL builder.
		"imageURL": func(p string) string { return p },
	}
}

// title upper-cases the first letter of s.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
