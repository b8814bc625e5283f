package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/router"
)

func tag(name string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupMiddlewareOrder(t *testing.T) {
	r := router.New()
	g := r.Group("/suppliers", tag("group"))
	g.Post("/delete/{id}", "suppliers.delete", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(req, "id")))
	}, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/suppliers/delete/7", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())
	assert.Equal(t, []string{"group", "route"}, rec.Header().Values("X-Chain"))
}

func TestURL(t *testing.T) {
	r := router.New()
	r.Group("/products").Group("styles").Get("/edit/{id}", "styles.edit", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("styles.edit", map[string]string{"id": "3"})
	require.NoError(t, err)
	assert.Equal(t, "/products/styles/edit/3", url)

	_, err = r.URL("styles.edit", nil)
	assert.Error(t, err)
	_, err = r.URL("nope", nil)
	assert.Error(t, err)
}

func TestHandleSubtreeAndRoutes(t *testing.T) {
	r := router.New()
	r.Handle("/uploads/*", "uploads", http.StripPrefix("/uploads/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(req.URL.Path))
	})))
	r.Get("/login", "login", func(http.ResponseWriter, *http.Request) {})
	r.Post("/login", "", func(http.ResponseWriter, *http.Request) {})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/shirt/base-abc.jpg", nil))
	assert.Equal(t, "shirt/base-abc.jpg", rec.Body.String())

	assert.Equal(t, []router.RouteInfo{
		{Method: http.MethodGet, Path: "/login", Name: "login"},
		{Method: http.MethodPost, Path: "/login"},
		{Method: "*", Path: "/uploads/*", Name: "uploads"},
	}, r.Routes())
}

func TestNotFoundHandler(t *testing.T) {
	r := router.New()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
