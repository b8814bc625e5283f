package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{"app_port": "9000", "image_size": 640, "db_driver": "postgres"}`)
	envPath := writeFile(t, dir, ".env", "APP_PORT=9100\nSUPERADMIN_USERNAME='root'\n# comment\nALLOWED_EXTENSIONS= PNG, .jpg ,jpeg\n")

	require.NoError(t, config.LoadFiles(jsonPath, envPath))

	assert.Equal(t, "9100", config.AppPort(), ".env wins over app.json")
	assert.Equal(t, 640, config.ImageSize())
	assert.Equal(t, "postgres", config.DatabaseDriver())
	assert.Equal(t, "root", config.SuperAdminUsername())
	assert.Equal(t, []string{"png", "jpg", "jpeg"}, config.AllowedExtensions())
}

func TestEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "IMAGE_SIZE=300\n")
	t.Setenv("IMAGE_SIZE", "512")

	require.NoError(t, config.LoadFiles(filepath.Join(dir, "missing.json"), envPath))
	assert.Equal(t, 512, config.ImageSize())
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.LoadFiles(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env")))

	assert.Equal(t, "sqlite", config.DatabaseDriver())
	assert.Equal(t, "stockroom.db?_foreign_keys=on", config.DatabaseDSN())
	assert.Equal(t, 800, config.ImageSize())
	assert.Equal(t, int64(89_478_485), config.ImageMaxPixels())
	assert.Equal(t, int64(16<<20), config.MaxUploadBytes())
	assert.Equal(t, "memory", config.SessionDriver())
	assert.Equal(t, 2*time.Hour, config.SessionTTL())
	assert.Equal(t, "storage/uploads", config.UploadRoot())
}

func TestUnknownDriverFallsBack(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "DB_DRIVER=oracle\n")
	require.NoError(t, config.LoadFiles("", envPath))
	assert.Equal(t, "sqlite", config.DatabaseDriver())
}

func TestSecretKeyAlias(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "SECRET_KEY=abc123\n")
	require.NoError(t, config.LoadFiles("", envPath))
	assert.Equal(t, "abc123", config.AppKey())
}
