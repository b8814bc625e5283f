// Package kernel assembles the application: it opens the database, the
// session store and the photo disk, builds the services and controllers and
// wraps the routes in the global middleware stack.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/controllers"
	"github.com/shashiranjanraj/stockroom/app/routes"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/event"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/reqid"
	"github.com/shashiranjanraj/stockroom/pkg/router"
	"github.com/shashiranjanraj/stockroom/pkg/session"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/upload"
	"github.com/shashiranjanraj/stockroom/pkg/view"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
	"github.com/shashiranjanraj/stockroom/resources"
)

// Options are the dependencies New needs. Zero values fall back to the
// defaults noted on each field.
type Options struct {
	DB       *gorm.DB      // required
	Sessions session.Store // default: in-memory store
	Disk     storage.Disk  // required
	Logger   *slog.Logger  // default: logger.L

	Secret     string        // signs remember-me tokens; required
	SessionTTL time.Duration // default: 2h
	Secure     bool          // Secure flag on cookies

	ImageSize  int      // default: upload.DefaultSize
	MaxPixels  int64    // default: upload.DefaultMaxPixels
	Allowed    []string // default: upload.DefaultExtensions
	StagingDir string   // default: os.TempDir()
	Workers    int      // image workers; default 4
	MaxUpload  int64    // product form body limit; default 16 MB
	LoginLimit int      // POST /login per IP per minute; 0 disables
}

// App is a booted application.
type App struct {
	DB       *gorm.DB
	Sessions session.Store
	Disk     storage.Disk
	Images   *upload.Pipeline
	Bus      *event.Bus
	Pool     *workerpool.Pool
	View     *view.Renderer

	Auth      *services.AuthService
	Users     *services.UserService
	Catalog   *services.CatalogService
	Suppliers *services.SupplierService
	Products  *services.ProductService
	Dashboard *services.DashboardService

	handler http.Handler
	closers []func() error
}

// New wires an App from already opened dependencies. Tests use it directly;
// Boot uses it after reading the configuration.
func New(opts Options) (*App, error) {
	if opts.DB == nil {
		return nil, errors.New("kernel: Options.DB is required")
	}
	if opts.Disk == nil {
		return nil, errors.New("kernel: Options.Disk is required")
	}
	if opts.Secret == "" {
		return nil, errors.New("kernel: Options.Secret is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logger.L
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 16 << 20
	}

	images := upload.New(opts.Disk, upload.Options{
		Root:      opts.StagingDir,
		Size:      opts.ImageSize,
		MaxPixels: opts.MaxPixels,
		Allowed:   opts.Allowed,
		Logger:    opts.Logger,
	})
	v, err := view.New(resources.Views, "views", template.FuncMap{"imageURL": images.URL})
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}

	a := &App{
		DB:       opts.DB,
		Sessions: opts.Sessions,
		Disk:     opts.Disk,
		Bus:      event.New(),
		Pool:     workerpool.New(opts.Workers),
		View:     v,
		Images:   images,
	}
	a.closers = append(a.closers, func() error {
		a.Pool.Shutdown()
		a.Bus.Wait()
		return nil
	})

	tokens := auth.NewTokens(opts.Secret, auth.RememberTTL)
	a.Auth = services.NewAuthService(opts.DB, tokens)
	a.Users = services.NewUserService(opts.DB)
	a.Catalog = services.NewCatalogService(opts.DB)
	a.Suppliers = services.NewSupplierService(opts.DB)
	a.Products = services.NewProductService(opts.DB, a.Images, a.Pool, a.Bus)
	a.Dashboard = services.NewDashboardService(opts.DB)
	services.RegisterListeners(a.Bus, a.Images)

	c := routes.Controllers{
		Auth:      controllers.NewAuthController(v, a.Auth, opts.Secure),
		Dashboard: controllers.NewDashboardController(v, a.Dashboard),
		Users:     controllers.NewUserController(v, a.Users),
		Catalog:   controllers.NewCatalogController(v, a.Catalog),
		Suppliers: controllers.NewSupplierController(v, a.Suppliers),
		Products:  controllers.NewProductController(v, a.Products, opts.MaxUpload),
		Uploads:   controllers.NewUploadController(v, opts.Disk),
	}

	sessOpts := session.DefaultOptions()
	if opts.SessionTTL > 0 {
		sessOpts.TTL = opts.SessionTTL
	}
	sessOpts.Secure = opts.Secure

	r := router.New()
	// Outermost first: metrics sees total latency, recovery guards
	// everything below it, the request id exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recover(func(w http.ResponseWriter, req *http.Request) {
		v.Error(w, req, http.StatusInternalServerError, "Something went wrong. Nothing was saved.")
	}))
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(session.Middleware(opts.Sessions, sessOpts))
	r.Use(middleware.Authenticate(c.Auth.Resolve))

	ro := routes.Options{View: v}
	if opts.LoginLimit > 0 {
		ro.LoginLimiter = middleware.NewLimiter(opts.LoginLimit, time.Minute)
	}
	routes.RegisterWeb(r, c, ro)
	a.handler = r.Handler()
	return a, nil
}

// Boot reads the configuration and opens every backing service.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("kernel: config: %w", err)
	}
	log := logger.Init(config.IsProduction())

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}
	closers := []func() error{func() error { return database.Close(db) }}
	fail := func(err error) (*App, error) {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}

	var store session.Store
	switch config.SessionDriver() {
	case "redis":
		client, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
		if err != nil {
			return fail(fmt.Errorf("kernel: session store: %w", err))
		}
		closers = append(closers, client.Close)
		store = session.NewRedisStore(client)
	default:
		store = session.NewMemoryStore()
	}

	disks, err := storage.FromConfig(ctx)
	if err != nil {
		return fail(fmt.Errorf("kernel: storage: %w", err))
	}

	a, err := New(Options{
		DB:         db,
		Sessions:   store,
		Disk:       disks.Default(),
		Logger:     log,
		Secret:     config.AppKey(),
		SessionTTL: config.SessionTTL(),
		Secure:     config.IsProduction(),
		ImageSize:  config.ImageSize(),
		MaxPixels:  config.ImageMaxPixels(),
		Allowed:    config.AllowedExtensions(),
		Workers:    config.ImageWorkers(),
		MaxUpload:  config.MaxUploadBytes(),
		LoginLimit: config.LoginRateLimit(),
	})
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, closers...)
	log.Info("kernel: booted",
		"db_driver", config.DatabaseDriver(),
		"session_driver", config.SessionDriver(),
		"disk", disks.DefaultName(),
	)
	return a, nil
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Close drains background work, then releases the connections Boot opened.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
