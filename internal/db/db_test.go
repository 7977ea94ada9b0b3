package db

import (
	"log/slog"
	"path/filepath"
	"testing"

	"bakehouse/internal/config"
	"bakehouse/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestInitializeRequiresPath(t *testing.T) {
	t.Parallel()

	db, err := Initialize(config.DatabaseConfig{Path: "  "})
	if err == nil {
		t.Fatal("expected error when database path is empty")
	}
	if db != nil {
		t.Fatal("expected returned db handle to be nil on error")
	}
}

func TestInitializeRejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	if _, err := Initialize(config.DatabaseConfig{URL: "mysql://example"}); err == nil {
		t.Fatal("expected error for unsupported URL scheme")
	}
}

func TestAutoMigrateRejectsNilDatabase(t *testing.T) {
	t.Parallel()

	if err := AutoMigrate(nil); err == nil {
		t.Fatal("expected error when database handle is nil")
	}
}

func TestAutoMigrateWithSQLite(t *testing.T) {
	t.Parallel()

	sqliteDB, err := gorm.Open(sqlite.Open("file:memdb-migrate?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	if err := AutoMigrate(sqliteDB); err != nil {
		t.Fatalf("automigrate sqlite database: %v", err)
	}

	for _, table := range []string{"ingredients", "recipes", "recipe_ingredients", "receipts", "users"} {
		if !sqliteDB.Migrator().HasTable(table) {
			t.Fatalf("expected table %q to exist", table)
		}
	}
	for _, column := range []string{"recipe_name", "quantity", "customer_name", "total", "receipt_text", "created_at"} {
		if !sqliteDB.Migrator().HasColumn(&models.Receipt{}, column) {
			t.Fatalf("expected receipts.%s to exist", column)
		}
	}
}

func TestConfigureCreatesSQLiteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bakery.db")
	database, err := Configure(config.DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if IsPostgres(database) {
		t.Fatal("sqlite database reported as postgres")
	}
	if !database.Migrator().HasTable(&models.Ingredient{}) {
		t.Fatal("expected ingredients table after Configure")
	}
}

func TestMustConfigurePanicsOnError(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when configuration fails")
		}
	}()

	MustConfigure(config.DatabaseConfig{})
}

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()

	if got := SQLiteDSN("bakery.db"); got != "file:bakery.db?_foreign_keys=on&_busy_timeout=5000" {
		t.Fatalf("SQLiteDSN = %q", got)
	}
	if got := SQLiteDSN("file:x?mode=memory"); got != "file:x?mode=memory" {
		t.Fatalf("SQLiteDSN kept DSN = %q", got)
	}
}

func TestGormLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level slog.Level
		want  logger.LogLevel
	}{
		{slog.LevelDebug, logger.Info},
		{slog.LevelInfo, logger.Warn},
		{slog.LevelError, logger.Error},
	}
	for _, tt := range tests {
		if got := gormLogLevel(tt.level); got != tt.want {
			t.Fatalf("gormLogLevel(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestTablesListsParentsFirst(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tables, err := Tables(db)
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	want := []string{"ingredients", "recipes", "recipe_ingredients", "receipts", "users"}
	if len(tables) != len(want) {
		t.Fatalf("Tables = %v, want %v", tables, want)
	}
	for i := range want {
		if tables[i] != want[i] {
			t.Fatalf("Tables[%d] = %q, want %q", i, tables[i], want[i])
		}
	}
}
