package migration_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
)

type widget struct {
	ID   uint
	Name string
}

type gadget struct {
	ID   uint
	Name string
}

type createWidgets struct{}

func (createWidgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&widget{}) }
func (createWidgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&widget{}) }

type createGadgets struct{}

func (createGadgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&gadget{}) }
func (createGadgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&gadget{}) }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

var entries = []migration.Entry{
	// Deliberately out of order; the runner sorts by name.
	{Name: "20260102000000_create_gadgets", Migration: createGadgets{}},
	{Name: "20260101000000_create_widgets", Migration: createWidgets{}},
}

func TestRunIsIdempotent(t *testing.T) {
	db := openDB(t)
	var out bytes.Buffer
	r := migration.New(db, entries, &out)

	n, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable(&widget{}))
	assert.True(t, db.Migrator().HasTable(&gadget{}))
	assert.Less(t, bytes.Index(out.Bytes(), []byte("create_widgets")), bytes.Index(out.Bytes(), []byte("create_gadgets")))

	n, err = r.Run()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, out.String(), "Nothing to migrate.")
}

func TestRollbackLastBatchOnly(t *testing.T) {
	db := openDB(t)
	first := migration.New(db, entries[1:], nil)
	_, err := first.Run()
	require.NoError(t, err)

	all := migration.New(db, entries, nil)
	_, err = all.Run()
	require.NoError(t, err)

	require.NoError(t, all.Rollback())
	assert.True(t, db.Migrator().HasTable(&widget{}))
	assert.False(t, db.Migrator().HasTable(&gadget{}))

	statuses, err := all.Statuses()
	require.NoError(t, err)
	assert.Equal(t, []migration.Status{
		{Name: "20260101000000_create_widgets", Ran: true, Batch: 1},
		{Name: "20260102000000_create_gadgets"},
	}, statuses)
}

func TestRollbackUnknownMigration(t *testing.T) {
	db := openDB(t)
	_, err := migration.New(db, entries, nil).Run()
	require.NoError(t, err)

	err = migration.New(db, entries[:1], nil).Rollback()
	assert.ErrorIs(t, err, migration.ErrNotRegistered)
}

func TestResetDropsEverything(t *testing.T) {
	db := openDB(t)
	r := migration.New(db, entries, nil)
	_, err := r.Run()
	require.NoError(t, err)
	require.NoError(t, db.Create(&widget{Name: "old"}).Error)

	require.NoError(t, r.Reset())
	assert.False(t, db.Migrator().HasTable(&widget{}))

	n, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResetOnEmptyDatabase(t *testing.T) {
	require.NoError(t, migration.New(openDB(t), entries, nil).Reset())
}

func TestDropHistory(t *testing.T) {
	db := openDB(t)
	r := migration.New(db, entries, nil)

	dropped, err := r.DropHistory()
	require.NoError(t, err)
	assert.False(t, dropped)

	_, err = r.Run()
	require.NoError(t, err)
	assert.True(t, r.HasHistory())

	dropped, err = r.DropHistory()
	require.NoError(t, err)
	assert.True(t, dropped)
	assert.False(t, db.Migrator().HasTable(migration.HistoryTable))
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	r := migration.New(openDB(t), entries, &out)
	require.NoError(t, r.PrintStatus())
	assert.Contains(t, out.String(), "20260101000000_create_widgets")
	assert.Contains(t, out.String(), "Pending")
}
