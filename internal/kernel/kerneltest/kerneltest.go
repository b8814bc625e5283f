// Package kerneltest boots a complete App for HTTP-level tests: a migrated
// sqlite database, in-memory sessions and a local disk under t.TempDir.
package kerneltest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/internal/kernel"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
)

// Password is the password of every user created by Users.
const Password = "secret-pass"

// App is a booted test application.
type App struct {
	*kernel.App
	UploadRoot string
}

// New boots an App. tune may adjust the options before boot.
func New(t testing.TB, tune ...func(*kernel.Options)) *App {
	t.Helper()
	root := t.TempDir()
	disk, err := storage.NewLocalDisk(root, "/uploads")
	require.NoError(t, err)

	opts := kernel.Options{
		DB:         testkit.DB(t),
		Disk:       disk,
		Logger:     logger.Discard(),
		Secret:     "test-secret",
		ImageSize:  64,
		StagingDir: t.TempDir(),
		Workers:    2,
	}
	for _, fn := range tune {
		fn(&opts)
	}

	a, err := kernel.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return &App{App: a, UploadRoot: root}
}

// Client returns a cookie-keeping client for the app's handler.
func (a *App) Client(t testing.TB) *testkit.Client {
	return testkit.NewClient(t, a.Handler())
}

// Users creates one account per role: "root" (SuperAdmin), "admin" and
// "moderator", all with Password.
func (a *App) Users(t testing.TB) {
	t.Helper()
	testkit.CreateUser(t, a.DB, rbac.SuperAdmin, "root", Password)
	testkit.CreateUser(t, a.DB, rbac.Admin, "admin", Password)
	testkit.CreateUser(t, a.DB, rbac.Moderator, "moderator", Password)
}

// As returns a client logged in as username.
func (a *App) As(t testing.TB, username string) *testkit.Client {
	t.Helper()
	c := a.Client(t)
	c.Login(username, Password)
	return c
}
