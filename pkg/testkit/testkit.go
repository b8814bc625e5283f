// Package testkit holds the helpers shared by package tests: a migrated
// sqlite database, seeded catalog rows, image fixtures and an HTTP client
// that keeps cookies between requests.
package testkit

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
)

// DB opens a fresh sqlite database under t.TempDir with foreign keys on and
// every migration applied. It is closed when the test ends.
func DB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "stockroom.db") + "?_foreign_keys=on"
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, migrations.All(), nil).Run()
	require.NoError(t, err)
	return db
}

// CreateUser inserts a user with role and password. Name and email derive
// from username.
func CreateUser(t testing.TB, db *gorm.DB, role rbac.Role, username, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		Role:         role,
		Name:         username + " user",
		Phone:        "0100000000",
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: hash,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Catalog is the set of rows a product needs.
type Catalog struct {
	Style    models.Style
	Category models.Category
	Brand    models.Brand
	Material models.Material
	Supplier models.Supplier
	Red      models.Color
	Blue     models.Color
}

// SeedCatalog inserts one row per attribute, a supplier and two colors.
func SeedCatalog(t testing.TB, db *gorm.DB) *Catalog {
	t.Helper()
	c := &Catalog{
		Style:    models.Style{Name: "Casual"},
		Category: models.Category{Name: "Shirts"},
		Brand:    models.Brand{Name: "House Label", IsOwnBrand: true},
		Material: models.Material{Name: "Cotton"},
		Supplier: models.Supplier{Type: models.Factory, Name: "Acme Mills", Phone: "0123456789"},
		Red:      models.Color{Name: "Red", HexCode: "#FF0000"},
		Blue:     models.Color{Name: "Blue", HexCode: "#0000FF"},
	}
	for _, row := range []interface{}{&c.Style, &c.Category, &c.Brand, &c.Material, &c.Supplier, &c.Red, &c.Blue} {
		require.NoError(t, db.Create(row).Error)
	}
	return c
}

var hookSeq atomic.Int64

// BeforeNextCreate runs fn once, inside the next INSERT into table, on that
// statement's connection and just before the row is written. It lets a test
// slip a competing row into the same transaction after the caller's own
// checks have passed, or fail the insert with tx.AddError.
func BeforeNextCreate(t testing.TB, db *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	var fired atomic.Bool
	name := fmt.Sprintf("testkit:before_create_%d", hookSeq.Add(1))
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table || !fired.CompareAndSwap(false, true) {
			return
		}
		fn(tx)
	})
	require.NoError(t, err)
}

// PNG encodes a w×h gradient with a translucent alpha channel.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 180, A: 200})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// JPEG encodes an opaque w×h gradient.
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}
