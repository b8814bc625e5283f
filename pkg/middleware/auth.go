package middleware

import (
	"net/http"
	"net/url"

	"github.com/shashiranjanraj/stockroom/pkg/rbac"
)

// Resolver maps a request to its authenticated principal, or nil.
type Resolver func(r *http.Request) *rbac.Principal

// Authenticate stores the resolved principal (if any) in the request
// context. It never rejects; gates are RequireLogin and rbac.Require.
func Authenticate(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p := resolve(r); p != nil {
				r = r.WithContext(rbac.WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous requests to loginPath?next=<original>.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rbac.PrincipalFrom(r.Context()) == nil {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGuest sends authenticated users to home instead of the login page.
func RequireGuest(home string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rbac.PrincipalFrom(r.Context()) != nil {
				http.Redirect(w, r, home, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SafeNext returns next when it is a local absolute path, else fallback.
// Scheme-relative ("//host") and absolute URLs are refused.
func SafeNext(next, fallback string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
