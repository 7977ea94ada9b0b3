package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Backup   BackupConfig
	Cache    CacheConfig
	Location *time.Location
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr string
}

// DatabaseConfig contains the database connection settings. URL selects
// postgres when it carries a postgres scheme; otherwise Path names the
// sqlite file.
type DatabaseConfig struct {
	Path            string
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string
}

// AuthConfig groups session and login throttling settings.
type AuthConfig struct {
	Session   SessionConfig
	LoginRate string
}

// SessionConfig controls cookie sessions.
type SessionConfig struct {
	Lifetime     time.Duration
	IdleTimeout  time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// BackupConfig controls database snapshots and the reminder timer.
type BackupConfig struct {
	Dir        string
	StatePath  string
	Interval   time.Duration
	CheckEvery time.Duration
}

// CacheConfig configures the optional redis report cache.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// Load inspects the environment (and an optional .env file) and builds a Config value.
func Load() (Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			"127.0.0.1:8080",
		),
	}

	cfg.Database = DatabaseConfig{
		Path: firstNonEmpty(
			os.Getenv("DATABASE_PATH"),
			"bakery.db",
		),
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 0),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 0),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), 0),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 0),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Logging = LoggingConfig{
		Level: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.Auth = AuthConfig{
		Session: SessionConfig{
			Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 12*time.Hour),
			IdleTimeout:  parseDurationWithDefault(os.Getenv("SESSION_IDLE_TIMEOUT"), 15*time.Minute),
			CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "bakehouse_session"),
			CookieDomain: os.Getenv("SESSION_COOKIE_DOMAIN"),
			CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), false),
		},
		LoginRate: firstNonEmpty(os.Getenv("LOGIN_RATE_LIMIT"), "10-M"),
	}

	cfg.Backup = BackupConfig{
		Dir:        firstNonEmpty(os.Getenv("BACKUP_DIR"), "backups"),
		StatePath:  firstNonEmpty(os.Getenv("BACKUP_STATE_PATH"), "backup_state.json"),
		Interval:   parseDurationWithDefault(os.Getenv("BACKUP_INTERVAL"), 24*time.Hour),
		CheckEvery: parseDurationWithDefault(os.Getenv("BACKUP_CHECK_EVERY"), 10*time.Minute),
	}

	cfg.Cache = CacheConfig{
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseIntWithDefault(os.Getenv("REDIS_DB"), 0),
		TTL:           parseDurationWithDefault(os.Getenv("REPORT_CACHE_TTL"), time.Minute),
	}

	cfg.Location = time.Local
	if name := strings.TrimSpace(os.Getenv("TZ_LOCATION")); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return Config{}, fmt.Errorf("load location %q: %w", name, err)
		}
		cfg.Location = loc
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	if cfg.Backup.Interval <= 0 || cfg.Backup.CheckEvery <= 0 {
		return Config{}, fmt.Errorf("backup interval and check period must be positive")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
