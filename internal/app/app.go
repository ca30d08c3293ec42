// Package app wires configuration, storage and services into one
// application object with an explicit start and shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"estate-listings/internal/core/auth"
	"estate-listings/internal/core/backup"
	"estate-listings/internal/core/cache"
	"estate-listings/internal/core/config"
	"estate-listings/internal/core/database"
	"estate-listings/internal/core/server"
	"estate-listings/internal/core/storage"
	"estate-listings/internal/feature/account"
	"estate-listings/internal/feature/listing"
	"estate-listings/internal/repo"
	"estate-listings/internal/service"
	"estate-listings/internal/transport/http/router"
	"estate-listings/internal/transport/http/session"
)

type App struct {
	Cfg *config.Config
	Log *zap.Logger

	DB       *gorm.DB
	Cache    *cache.Cache // nil without redis.addr
	Images   *storage.ImageStore
	Accounts *service.AccountService
	Catalog  *service.CatalogService
	Sessions *session.Manager
	Backup   *backup.Scheduler // nil unless the driver is sqlite

	srv  *http.Server
	errc chan error
}

// New opens the database and builds every dependency. Nothing runs in the
// background until Start.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log, errc: make(chan error, 1)}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(append(account.Models(), listing.Models()...)...); err != nil {
			a.closeDB()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}

	if cfg.Redis.Addr != "" {
		a.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, time.Duration(cfg.Redis.TTLSec)*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.Cache.Ping(ctx); err != nil {
			log.Warn("redis unreachable, catalog reads go to the database", zap.Error(err))
		}
		cancel()
	}

	if a.Images, err = storage.NewImageStore(cfg.Storage.UploadDir); err != nil {
		a.closeDB()
		return nil, err
	}

	a.Accounts = service.NewAccountService(repo.NewAccountRepo(db), log.Named("accounts"))
	a.Catalog = service.NewCatalogService(repo.NewListingRepo(db), a.Images, a.Cache, log.Named("catalog"))

	if cfg.Session.Secret == "change-me" && cfg.App.Env == "prod" {
		log.Warn("session.secret still has its default value")
	}
	a.Sessions = session.NewManager(&auth.JWTer{
		Secret: []byte(cfg.Session.Secret),
		Issuer: cfg.Session.Issuer,
		TTL:    time.Duration(cfg.Session.TTLMin) * time.Minute,
	}, cfg.Session.CookieName, cfg.Session.Secure)

	if cfg.DB.Driver == "" || cfg.DB.Driver == "sqlite" {
		a.Backup, err = backup.New(backup.Options{
			Source:   database.SQLiteFile(cfg.DB.DSN),
			Dir:      cfg.Backup.Dir,
			Interval: time.Duration(cfg.Backup.IntervalMin) * time.Minute,
			Keep:     cfg.Backup.Keep,
		}, log)
		if err != nil {
			log.Warn("backup unavailable", zap.Error(err))
		}
	}
	return a, nil
}

func (a *App) Handler() http.Handler {
	if a.Cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	return router.NewEngine(router.Deps{
		Log:            a.Log,
		Sessions:       a.Sessions,
		Accounts:       a.Accounts,
		Catalog:        a.Catalog,
		UploadDir:      a.Images.Dir(),
		MaxUploadBytes: int64(a.Cfg.Storage.MaxUploadMB) << 20,
		CORSOrigins:    a.Cfg.App.HTTP.CORSOrigins,
		AuthRPS:        a.Cfg.Limits.AuthRPS,
		AuthBurst:      a.Cfg.Limits.AuthBurst,
		MaxConcurrency: a.Cfg.Limits.MaxConcurrency,
		Timeout:        time.Duration(a.Cfg.Limits.TimeoutSec) * time.Second,
		Ping:           a.ping,
	})
}

// Start launches the backup schedule and the HTTP server. Serve errors are
// delivered on Err.
func (a *App) Start() error {
	switch {
	case !a.Cfg.Backup.Enabled:
		a.Log.Info("backup disabled")
	case a.Backup == nil:
		a.Log.Warn("backup needs the sqlite driver, not started", zap.String("driver", a.Cfg.DB.Driver))
	default:
		if err := a.Backup.Start(); err != nil {
			return err
		}
	}

	h := a.Cfg.App.HTTP
	a.srv = server.BuildServer(
		server.Addr(h.Host, h.Port), a.Handler(),
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)
	a.Log.Info("http starting", zap.String("addr", a.srv.Addr))
	go func() {
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errc <- err
		}
	}()
	return nil
}

func (a *App) Err() <-chan error { return a.errc }

// Shutdown drains HTTP first, then waits for a running backup, then closes
// the cache and the database.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.Backup != nil {
		a.Backup.Stop()
	}
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis close: %w", err))
	}
	if err := a.closeDB(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) closeDB() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
