package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/stockroom/pkg/rbac"
)

func principal(role rbac.Role) *rbac.Principal {
	return &rbac.Principal{UserID: 1, Role: role}
}

func TestPredicateTable(t *testing.T) {
	cases := []struct {
		name         string
		p            *rbac.Principal
		superAdmin   bool
		adminOrSuper bool
		admin        bool
	}{
		{"anonymous", nil, false, false, false},
		{"superadmin", principal(rbac.SuperAdmin), true, true, false},
		{"admin", principal(rbac.Admin), false, true, true},
		{"moderator", principal(rbac.Moderator), false, false, false},
		{"unknown role", principal(rbac.Role(9)), false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.superAdmin, rbac.IsSuperAdmin(tc.p))
			assert.Equal(t, tc.adminOrSuper, rbac.IsAdminOrSuperAdmin(tc.p))
			assert.Equal(t, tc.admin, rbac.IsAdmin(tc.p))
		})
	}
}

func TestOperationClasses(t *testing.T) {
	type row struct {
		read, write, users bool
	}
	want := map[rbac.Role]row{
		rbac.SuperAdmin: {read: true, write: false, users: true},
		rbac.Admin:      {read: true, write: true, users: false},
		rbac.Moderator:  {read: false, write: false, users: false},
	}
	for role, w := range want {
		p := principal(role)
		assert.Equal(t, w.read, rbac.ReadCatalog(p), "%s read", role)
		assert.Equal(t, w.write, rbac.WriteCatalog(p), "%s write", role)
		assert.Equal(t, w.users, rbac.ManageUsers(p), "%s users", role)
	}
}

func TestRequireMiddleware(t *testing.T) {
	called := false
	h := rbac.Require(rbac.IsAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called, "handler must not run when denied")

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req = req.WithContext(rbac.WithPrincipal(req.Context(), principal(rbac.Admin)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
}

func TestRoleNames(t *testing.T) {
	assert.Equal(t, "SuperAdmin", rbac.SuperAdmin.String())
	assert.Equal(t, "Moderator", rbac.Moderator.String())
	assert.Equal(t, "Unknown", rbac.Role(7).String())
	assert.Equal(t, []rbac.Role{rbac.Admin, rbac.Moderator}, rbac.Assignable())
	assert.False(t, rbac.Role(-1).Valid())
}
