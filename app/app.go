package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/soffa-projects/go-webstack/auth"
	"github.com/soffa-projects/go-webstack/cache"
	"github.com/soffa-projects/go-webstack/config"
	"github.com/soffa-projects/go-webstack/gate"
	"github.com/soffa-projects/go-webstack/oauth"
	"github.com/soffa-projects/go-webstack/session"
	"github.com/soffa-projects/go-webstack/store"
	"github.com/soffa-projects/go-webstack/token"
)

const userInfoCacheTTL = 5 * time.Minute

// App is the assembled application. One instance per process, constructed at
// startup and shared by reference.
type App struct {
	cfg *config.Config
	e   *echo.Echo
	db  store.DataSource
}

type Option func(*options)

type options struct {
	db       store.DataSource
	provider oauth.Provider
}

// WithDataSource overrides the database connection, used by tests.
func WithDataSource(db store.DataSource) Option {
	return func(o *options) { o.db = db }
}

// WithOAuthProvider overrides the identity provider, used by tests.
func WithOAuthProvider(provider oauth.Provider) Option {
	return func(o *options) { o.provider = provider }
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	configureLogging(cfg)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db := o.db
	if db == nil {
		var err error
		if db, err = store.Open(cfg.DatabaseUrl); err != nil {
			return nil, err
		}
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		var err error
		provider, err = oauth.NewGoogle(context.Background(), cfg.GoogleClientId, cfg.GoogleClientSecret, cfg.AppUrl)
		if err != nil {
			return nil, err
		}
	}

	codec := token.NewCodec(cfg.JwtSecret, cfg.JwtExpiry)
	cookies := session.NewManager(cfg.JwtExpiry, cfg.Production)
	users := store.NewUserRepo(db)
	userInfo := cache.New(userInfoCacheTTL)
	authHandler := auth.NewHandler(users, codec, cookies, provider, userInfo)
	auth.RegisterAuditSubscribers()

	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return strings.Contains(c.Request().URL.Path, ".")
		},
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))
	if cfg.SentryDsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDsn}); err != nil {
			log.Warnf("sentry initialization failed: %v", err)
		} else {
			e.Use(sentryecho.New(sentryecho.Options{}))
		}
	}
	e.Use(gate.Middleware(codec))

	a := &App{cfg: cfg, e: e, db: db}
	a.registerRoutes(authHandler, users)
	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.e
}

// Run starts the server and blocks until SIGINT or SIGTERM, then shuts down
// gracefully and closes the database.
func (a *App) Run() {
	go func() {
		if err := a.e.Start("0.0.0.0:" + a.cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.e.Shutdown(ctx)
	a.Close()
}

func (a *App) Close() {
	a.db.Close()
}

func configureLogging(cfg *config.Config) {
	if cfg.Production {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if cfg.LogLevel != "" {
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(level)
		}
	}
}
