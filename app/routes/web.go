// Package routes maps URLs to controllers and their access gates.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/controllers"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/router"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

// Controllers are the handlers the routes dispatch to.
type Controllers struct {
	Auth      *controllers.AuthController
	Dashboard *controllers.DashboardController
	Users     *controllers.UserController
	Catalog   *controllers.CatalogController
	Suppliers *controllers.SupplierController
	Products  *controllers.ProductController
	Uploads   *controllers.UploadController
}

// Options tune the gates in front of the controllers.
type Options struct {
	View *view.Renderer
	// LoginLimiter throttles POST /login per client IP. Nil disables it.
	LoginLimiter *middleware.Limiter
}

// RegisterWeb registers every page route.
func RegisterWeb(r *router.Router, c Controllers, opts Options) {
	v := opts.View
	if v == nil {
		v = &view.Renderer{}
	}

	r.Get("/healthz", "health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	guest := r.Group("", middleware.RequireGuest("/dashboard"))
	guest.Get("/", "home", c.Auth.ShowLogin)
	guest.Get("/login", "auth.login", c.Auth.ShowLogin)
	var throttle []router.Middleware
	if opts.LoginLimiter != nil {
		throttle = append(throttle, opts.LoginLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
			v.Error(w, r, http.StatusTooManyRequests, "Too many login attempts. Please wait a minute and try again.")
		}))
	}
	guest.Post("/login", "auth.attempt", c.Auth.Login, throttle...)

	auth := r.Group("", middleware.RequireLogin("/login"))
	auth.Get("/logout", "auth.logout", c.Auth.Logout)
	auth.Get("/dashboard", "dashboard", c.Dashboard.Show)
	auth.Get("/uploads/*", "uploads.show", c.Uploads.Show)

	users := auth.Group("", rbac.Require(rbac.ManageUsers, v.Forbidden))
	users.Get("/users", "users.index", c.Users.Index)
	users.Get("/user/edit", "users.create", c.Users.Edit)
	users.Post("/user/edit", "users.store", c.Users.Save)
	users.Get("/user/edit/{id}", "users.edit", c.Users.Edit)
	users.Post("/user/edit/{id}", "users.update", c.Users.Save)
	users.Post("/user/delete/{id}", "users.delete", c.Users.Delete)

	read := auth.Group("", rbac.Require(rbac.ReadCatalog, v.Forbidden))
	write := auth.Group("", rbac.Require(rbac.WriteCatalog, v.Forbidden))

	read.Get("/products", "products.index", c.Products.Index)
	read.Get("/products/view/{id}", "products.show", c.Products.Show)
	write.Get("/products/edit", "products.create", c.Products.Edit)
	write.Post("/products/edit", "products.store", c.Products.Save)
	write.Get("/products/edit/{id}", "products.edit", c.Products.Edit)
	write.Post("/products/edit/{id}", "products.update", c.Products.Save)
	write.Post("/products/delete/{id}", "products.delete", c.Products.Delete)
	write.Post("/products/images/delete/{id}", "products.images.delete", c.Products.DeleteImage)

	for _, a := range repositories.Attributes() {
		base := "/products/" + a.Key
		read.Get(base, a.Key+".index", c.Catalog.Index(a))
		write.Get(base+"/edit", a.Key+".create", c.Catalog.Edit(a))
		write.Post(base+"/edit", a.Key+".store", c.Catalog.Save(a))
		write.Get(base+"/edit/{id}", a.Key+".edit", c.Catalog.Edit(a))
		write.Post(base+"/edit/{id}", a.Key+".update", c.Catalog.Save(a))
		write.Post(base+"/delete/{id}", a.Key+".delete", c.Catalog.Delete(a))
	}

	read.Get("/suppliers", "suppliers.index", c.Suppliers.Index)
	write.Get("/suppliers/edit", "suppliers.create", c.Suppliers.Edit)
	write.Post("/suppliers/edit", "suppliers.store", c.Suppliers.Save)
	write.Get("/suppliers/edit/{id}", "suppliers.edit", c.Suppliers.Edit)
	write.Post("/suppliers/edit/{id}", "suppliers.update", c.Suppliers.Save)
	write.Post("/suppliers/delete/{id}", "suppliers.delete", c.Suppliers.Delete)

	r.NotFound(v.NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		v.Error(w, r, http.StatusMethodNotAllowed, "That action is not allowed here.")
	})
}

// List returns the registered routes without booting any dependency.
func List() []router.RouteInfo {
	r := router.New()
	RegisterWeb(r, Controllers{
		Auth:      &controllers.AuthController{},
		Dashboard: &controllers.DashboardController{},
		Users:     &controllers.UserController{},
		Catalog:   &controllers.CatalogController{},
		Suppliers: &controllers.SupplierController{},
		Products:  &controllers.ProductController{},
		Uploads:   &controllers.UploadController{},
	}, Options{})
	return r.Routes()
}
