package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gorm.io/gorm"

	"bakehouse/internal/backup"
	"bakehouse/internal/bakery"
	"bakehouse/internal/cache"
	"bakehouse/internal/config"
	appdb "bakehouse/internal/db"
	"bakehouse/internal/db/mock"
	applog "bakehouse/internal/log"
	"bakehouse/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

type reportCache interface {
	bakery.ReportCache
	Ping(ctx context.Context) error
	Close() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = appdb.Configure
	newReportCacheFunc  = func(cfg config.CacheConfig) reportCache {
		return cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	newServerFunc = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	defer applog.Sync()

	var database *gorm.DB
	if cfg.Database.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	var reports bakery.ReportCache
	if strings.TrimSpace(cfg.Cache.RedisAddr) != "" {
		rc := newReportCacheFunc(cfg.Cache)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			applog.Warn(ctx, "redis unavailable, reports will not be cached", "addr", cfg.Cache.RedisAddr, "error", err)
			rc.Close()
		} else {
			applog.Info(ctx, "report cache enabled", "addr", cfg.Cache.RedisAddr)
			reports = rc
			defer rc.Close()
		}
	}

	srvCfg := server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			IdleTimeout:  cfg.Auth.Session.IdleTimeout,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		LoginRate:   cfg.Auth.LoginRate,
		Database:    database,
		Location:    cfg.Location,
		ReportCache: reports,
		CacheTTL:    cfg.Cache.TTL,
		Backup: server.BackupSchedule{
			Interval:   cfg.Backup.Interval,
			CheckEvery: cfg.Backup.CheckEvery,
		},
	}
	if !cfg.Database.UseMock && strings.TrimSpace(cfg.Database.URL) == "" {
		srvCfg.Backups = backup.NewManager(backup.Config{
			DBPath:    cfg.Database.Path,
			Dir:       cfg.Backup.Dir,
			StatePath: cfg.Backup.StatePath,
		}, backup.VacuumInto(database))
	} else {
		applog.Info(ctx, "backups disabled for non-file database")
	}

	srv, err := newServerFunc(srvCfg)
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	sigCh, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down http server")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}
	applog.Info(ctx, "server stopped")
	return 0
}
