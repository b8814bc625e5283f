// Package rbac holds the role model and the access predicates that gate
// every privileged route.
//
// Three roles exist. Predicates take the request principal; a nil principal
// (unauthenticated) is denied by all of them.
//
//	r.Get("/users", "users.index", h.Index, rbac.Require(rbac.ManageUsers))
package rbac

import (
	"context"
	"net/http"
)

// Role is the persisted role tag of a user.
type Role int

const (
	SuperAdmin Role = 0
	Admin      Role = 1
	Moderator  Role = 2
)

var roleNames = map[Role]string{
	SuperAdmin: "SuperAdmin",
	Admin:      "Admin",
	Moderator:  "Moderator",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Unknown"
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Assignable lists the roles that can be given through user management.
// SuperAdmin only comes from bootstrap.
func Assignable() []Role { return []Role{Admin, Moderator} }

// Principal is the authenticated user making a request.
type Principal struct {
	UserID   uint
	Name     string
	Username string
	Role     Role
}

// ── Predicates ───────────────────────────────────────────────────────────────

// Check decides whether p may perform an operation class.
type Check func(p *Principal) bool

// IsSuperAdmin is true iff p is the SuperAdmin.
func IsSuperAdmin(p *Principal) bool {
	return p != nil && p.Role == SuperAdmin
}

// IsAdminOrSuperAdmin is true for SuperAdmin and Admin.
func IsAdminOrSuperAdmin(p *Principal) bool {
	return p != nil && (p.Role == SuperAdmin || p.Role == Admin)
}

// IsAdmin is true for Admin only; SuperAdmin does not pass.
func IsAdmin(p *Principal) bool {
	return p != nil && p.Role == Admin
}

// Authenticated is true for any logged-in principal.
func Authenticated(p *Principal) bool { return p != nil }

// Operation classes.
var (
	ReadCatalog  Check = IsAdminOrSuperAdmin
	WriteCatalog Check = IsAdmin
	ManageUsers  Check = IsSuperAdmin
)

// ── Context ──────────────────────────────────────────────────────────────────

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the principal in ctx, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}

// ── Middleware ───────────────────────────────────────────────────────────────

// DenyFunc writes the rejection for a failed check.
type DenyFunc func(w http.ResponseWriter, r *http.Request)

// Forbidden is the default DenyFunc.
var Forbidden DenyFunc = func(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// Require returns middleware that lets the request through only when check
// passes for the request principal. deny defaults to Forbidden.
func Require(check Check, deny ...DenyFunc) func(http.Handler) http.Handler {
	reject := Forbidden
	if len(deny) > 0 && deny[0] != nil {
		reject = deny[0]
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !check(PrincipalFrom(r.Context())) {
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
