package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"bakehouse/internal/auth"
	"bakehouse/internal/backup"
	"bakehouse/internal/bakery"
	"bakehouse/internal/handlers"
	applog "bakehouse/internal/log"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr      string
	Session   SessionConfig
	LoginRate string
	Database  *gorm.DB
	Location  *time.Location
	// ReportCache defaults to no caching.
	ReportCache bakery.ReportCache
	CacheTTL    time.Duration
	// Backups is nil when the database is not a local sqlite file.
	Backups *backup.Manager
	Backup  BackupSchedule
}

// SessionConfig controls session behavior for the HTTP server.
type SessionConfig struct {
	Lifetime     time.Duration
	IdleTimeout  time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// BackupSchedule controls the automatic backup timer.
type BackupSchedule struct {
	Interval   time.Duration
	CheckEvery time.Duration
}

// Server wraps an http.Server together with the background backup timer.
type Server struct {
	config     Config
	httpServer *http.Server
	scheduler  *backup.Scheduler
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"sessionLifetime", cfg.Session.Lifetime.String(),
		"sessionIdleTimeout", cfg.Session.IdleTimeout.String(),
		"sessionCookie", cfg.Session.CookieName,
	)
	if cfg.Database == nil {
		return nil, errors.New("server: database is required")
	}

	sessionCfg := cfg.Session
	if sessionCfg.Lifetime <= 0 {
		sessionCfg.Lifetime = 12 * time.Hour
	}
	if strings.TrimSpace(sessionCfg.CookieName) == "" {
		sessionCfg.CookieName = "bakehouse_session"
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = sessionCfg.Lifetime
	sessionManager.IdleTimeout = sessionCfg.IdleTimeout
	sessionManager.Cookie.Name = sessionCfg.CookieName
	sessionManager.Cookie.Domain = sessionCfg.CookieDomain
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = sessionCfg.CookieSecure

	loginLimit, err := newLoginLimiter(cfg.LoginRate)
	if err != nil {
		return nil, err
	}

	services := bakery.New(cfg.Database, bakery.Options{
		Location: cfg.Location,
		Cache:    cfg.ReportCache,
		CacheTTL: cfg.CacheTTL,
	})
	h := handlers.New(handlers.Dependencies{
		Sessions: sessionManager,
		Database: cfg.Database,
		Bakery:   services,
		Users:    auth.NewStore(cfg.Database),
		Backups:  cfg.Backups,
	})

	handler := sessionManager.LoadAndSave(newRouter(h, loginLimit))

	srv := &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	if cfg.Backups != nil && cfg.Backup.CheckEvery > 0 && cfg.Backup.Interval > 0 {
		srv.scheduler = backup.NewScheduler(cfg.Backup.CheckEvery, cfg.Backups.AutoBackup(cfg.Backup.Interval))
	}
	return srv, nil
}

// Start launches the backup timer and serves HTTP until Stop is called.
func (s *Server) Start() error {
	if s.scheduler != nil {
		applog.Info(context.Background(), "backup timer started",
			"interval", s.config.Backup.Interval.String(),
			"checkEvery", s.config.Backup.CheckEvery.String(),
		)
		s.scheduler.Start(context.Background())
	}
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop halts the backup timer and gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
