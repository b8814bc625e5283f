package seeders_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/database/seeders"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
)

func migrated(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "seed.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	_, err = migration.New(db, migrations.All(), nil).Run()
	require.NoError(t, err)
	return db
}

var opts = seeders.SuperAdminOptions{Username: "root", Email: "root@example.com", Password: "s3cret"}

func TestSeedSuperAdminIsIdempotent(t *testing.T) {
	db := migrated(t)
	ctx := context.Background()

	created, err := seeders.SeedSuperAdmin(ctx, db, opts)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = seeders.SeedSuperAdmin(ctx, db, opts)
	require.NoError(t, err)
	assert.False(t, created)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	u := users[0]
	assert.Equal(t, rbac.SuperAdmin, u.Role)
	assert.Equal(t, "System Superadmin", u.Name)
	assert.Equal(t, "0000000000", u.Phone)
	assert.Equal(t, "root@example.com", u.Email)
	assert.True(t, auth.CheckPassword(u.PasswordHash, "s3cret"))
}

func TestSeedSuperAdminRequiresCredentials(t *testing.T) {
	db := migrated(t)
	_, err := seeders.SeedSuperAdmin(context.Background(), db, seeders.SuperAdminOptions{Username: "root"})
	assert.Error(t, err)
}

func TestRunAllTwice(t *testing.T) {
	db := migrated(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, seeders.Run(ctx, db, &out, seeders.All(opts)...))
	assert.Contains(t, out.String(), "Running seeder: superadmin")
	assert.Contains(t, out.String(), "SuperAdmin 'root' created")

	out.Reset()
	require.NoError(t, seeders.Run(ctx, db, &out, seeders.All(opts)...))
	assert.Contains(t, out.String(), "SuperAdmin already exists")

	var colors, brands int64
	require.NoError(t, db.Model(&models.Color{}).Count(&colors).Error)
	require.NoError(t, db.Model(&models.Brand{}).Count(&brands).Error)
	assert.Equal(t, int64(3), colors)
	assert.Equal(t, int64(2), brands)
}

func TestRunWithNoSeeders(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, seeders.Run(context.Background(), nil, &out))
	assert.Contains(t, out.String(), "no seeders registered")
}
