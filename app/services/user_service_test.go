package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
)

func validUser() UserInput {
	return UserInput{
		Name:     "Jane Doe",
		Phone:    "0123456789",
		Email:    "jane@example.com",
		Username: "jane",
		Role:     rbac.Moderator,
	}
}

func TestUserCreateDefaultsPassword(t *testing.T) {
	db := testkit.DB(t)
	svc := NewUserService(db)

	u, err := svc.Save(ctx, 0, validUser())
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.True(t, auth.CheckPassword(u.PasswordHash, DefaultPassword))
}

func TestUserEditKeepsPasswordWhenBlank(t *testing.T) {
	db := testkit.DB(t)
	svc := NewUserService(db)
	existing := testkit.CreateUser(t, db, rbac.Admin, "ann", "original-pass")

	in := UserInputFrom(*existing)
	in.Name = "Ann Renamed"
	u, err := svc.Save(ctx, existing.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Ann Renamed", u.Name)

	var stored models.User
	require.NoError(t, db.First(&stored, existing.ID).Error)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "original-pass"))
}

func TestUserSaveValidation(t *testing.T) {
	db := testkit.DB(t)
	svc := NewUserService(db)
	testkit.CreateUser(t, db, rbac.Admin, "taken", "pw")

	cases := map[string]struct {
		mutate func(*UserInput)
		field  string
	}{
		"superadmin role":   {func(in *UserInput) { in.Role = rbac.SuperAdmin }, "role"},
		"unknown role":      {func(in *UserInput) { in.Role = 7 }, "role"},
		"short name":        {func(in *UserInput) { in.Name = "J" }, "name"},
		"bad email":         {func(in *UserInput) { in.Email = "nope" }, "email"},
		"taken username":    {func(in *UserInput) { in.Username = "taken" }, "username"},
		"taken email":       {func(in *UserInput) { in.Email = "taken@example.com" }, "email"},
		"password mismatch": {func(in *UserInput) { in.Password, in.PasswordConfirmation = "abc12345", "abc" }, "password"},
		"missing phone":     {func(in *UserInput) { in.Phone = "" }, "phone"},
		"username too long": {func(in *UserInput) { in.Username = strings.Repeat("u", 81) }, "username"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validUser()
			tc.mutate(&in)
			_, err := svc.Save(ctx, 0, in)
			fe, ok := AsFieldErrors(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, fe, tc.field)
		})
	}

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestSuperAdminIsProtected(t *testing.T) {
	db := testkit.DB(t)
	svc := NewUserService(db)
	root := testkit.CreateUser(t, db, rbac.SuperAdmin, "root", "pw")

	_, err := svc.Editable(ctx, root.ID)
	assert.ErrorIs(t, err, ErrSuperAdminProtected)

	in := UserInputFrom(*root)
	in.Role = rbac.Admin
	_, err = svc.Save(ctx, root.ID, in)
	assert.ErrorIs(t, err, ErrSuperAdminProtected)

	_, err = svc.Delete(ctx, root.ID)
	assert.ErrorIs(t, err, ErrSuperAdminProtected)

	var stored models.User
	require.NoError(t, db.First(&stored, root.ID).Error)
	assert.Equal(t, rbac.SuperAdmin, stored.Role)
}

func TestUserListHidesSuperAdmin(t *testing.T) {
	db := testkit.DB(t)
	svc := NewUserService(db)
	testkit.CreateUser(t, db, rbac.SuperAdmin, "root", "pw")
	testkit.CreateUser(t, db, rbac.Admin, "admin", "pw")
	testkit.CreateUser(t, db, rbac.Moderator, "mod", "pw")

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, rbac.SuperAdmin, u.Role)
	}
}

func TestUserDeleteAndMissing(t *testing.T) {
	db := testkit.DB(t)
	svc := NewUserService(db)
	mod := testkit.CreateUser(t, db, rbac.Moderator, "mod", "pw")

	deleted, err := svc.Delete(ctx, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, "mod", deleted.Username)

	_, err = svc.Delete(ctx, mod.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
