package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// Manager holds the configured disks and names the default one.
type Manager struct {
	mu          sync.RWMutex
	disks       map[string]Disk
	defaultDisk string
}

// New returns a Manager whose default disk is name. Register the disk before
// calling Default.
func New(defaultDisk string) *Manager {
	return &Manager{disks: map[string]Disk{}, defaultDisk: defaultDisk}
}

// FromConfig boots the local disk (always) and the S3 disk when S3_BUCKET is
// set. STORAGE_DISK picks the default; an unavailable choice falls back to
// local with a warning.
func FromConfig(ctx context.Context) (*Manager, error) {
	local, err := NewLocalDisk(config.UploadRoot(), config.StorageURL())
	if err != nil {
		return nil, err
	}
	m := New(config.StorageDisk())
	m.Register("local", local)

	if bucket := config.StorageS3Bucket(); bucket != "" {
		d, err := NewS3Disk(ctx, S3Options{
			Bucket:   bucket,
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			URL:      config.StorageS3URL(),
		})
		if err != nil {
			logger.Warn("storage/s3: disk disabled", "error", err)
		} else {
			m.Register("s3", d)
		}
	}

	if _, ok := m.disks[m.defaultDisk]; !ok {
		logger.Warn("storage: default disk unavailable, using local", "disk", m.defaultDisk)
		m.defaultDisk = "local"
	}
	return m, nil
}

// Register adds or replaces a named disk.
func (m *Manager) Register(name string, d Disk) {
	m.mu.Lock()
	m.disks[name] = d
	m.mu.Unlock()
}

// Use returns the named disk.
func (m *Manager) Use(name string) (Disk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the default disk. It panics when the default was never
// registered, which is a boot wiring error.
func (m *Manager) Default() Disk {
	d, err := m.Use(m.defaultDisk)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultName reports the default disk's name.
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultDisk
}
