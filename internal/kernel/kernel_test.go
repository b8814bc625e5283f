package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/internal/kernel"
	"github.com/shashiranjanraj/stockroom/internal/kernel/kerneltest"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
)

func TestNewRequiresDependencies(t *testing.T) {
	disk, err := storage.NewLocalDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)
	db := testkit.DB(t)

	cases := map[string]kernel.Options{
		"no database": {Disk: disk, Secret: "s"},
		"no disk":     {DB: db, Secret: "s"},
		"no secret":   {DB: db, Disk: disk},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := kernel.New(opts)
			assert.Error(t, err)
		})
	}
}

func TestNewWiresEverything(t *testing.T) {
	app := kerneltest.New(t)
	assert.NotNil(t, app.Handler())
	assert.NotNil(t, app.Products)
	assert.NotNil(t, app.Catalog)
	assert.NotNil(t, app.Suppliers)
	assert.NotNil(t, app.Users)
	assert.Equal(t, "/uploads/a/base-abc123.jpg", app.Images.URL("a/base-abc123.jpg"))
	assert.NoError(t, app.Close())
}
