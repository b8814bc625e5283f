// Package storage provides the filesystem abstraction product photos are
// written to.
//
// Two drivers are available:
//   - "local"  local filesystem rooted at UPLOAD_ROOT (default)
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	disks, err := storage.FromConfig(ctx)
//	disk := disks.Default()
//	_ = disk.Put(ctx, "blue-shirt/base-a1b2c3.jpg", data)
//	url := disk.URL("blue-shirt/base-a1b2c3.jpg")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by GetStream for missing files.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is the filesystem driver interface. Paths are slash separated and
// relative to the disk root.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error

	// GetStream returns a ReadCloser for the file. Caller must close it.
	// Missing files yield an error wrapping ErrNotExist.
	GetStream(ctx context.Context, path string) (io.ReadCloser, error)

	// URL returns the public URL for path.
	URL(path string) string

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error
}
