package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

func newDisk(t *testing.T) (*storage.LocalDisk, string) {
	t.Helper()
	root := t.TempDir()
	d, err := storage.NewLocalDisk(root, "/uploads/")
	require.NoError(t, err)
	return d, root
}

func TestLocalPutGetDelete(t *testing.T) {
	d, root := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "blue-shirt/base-abc123.jpg", []byte("jpeg")))
	assert.FileExists(t, filepath.Join(root, "blue-shirt", "base-abc123.jpg"))

	rc, err := d.GetStream(ctx, "blue-shirt/base-abc123.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	require.NoError(t, d.Delete(ctx, "blue-shirt/base-abc123.jpg"))
	assert.NoFileExists(t, filepath.Join(root, "blue-shirt", "base-abc123.jpg"))
	// Deleting twice is not an error.
	require.NoError(t, d.Delete(ctx, "blue-shirt/base-abc123.jpg"))
}

func TestLocalMissingFile(t *testing.T) {
	d, _ := newDisk(t)
	ctx := context.Background()
	_, err := d.GetStream(ctx, "nope.png")
	assert.ErrorIs(t, err, storage.ErrNotExist)

	require.NoError(t, d.Put(ctx, "dir/a.png", []byte("x")))
	_, err = d.GetStream(ctx, "dir")
	assert.ErrorIs(t, err, storage.ErrNotExist, "directories are not files")
}

func TestLocalPathsStayInsideRoot(t *testing.T) {
	d, root := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "../../escape.txt", []byte("x")))
	assert.FileExists(t, filepath.Join(root, "escape.txt"))
	_, err := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(root)), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalURL(t *testing.T) {
	d, _ := newDisk(t)
	assert.Equal(t, "/uploads/a/b.jpg", d.URL("a/b.jpg"))
	assert.Equal(t, "/uploads/a/b.jpg", d.URL("/a/b.jpg"))
}

func TestManagerUse(t *testing.T) {
	d, _ := newDisk(t)
	m := storage.New("local")
	m.Register("local", d)

	assert.Same(t, d, m.Default())
	assert.Equal(t, "local", m.DefaultName())
	_, err := m.Use("s3")
	assert.Error(t, err)

	assert.Panics(t, func() { storage.New("s3").Default() })
}
