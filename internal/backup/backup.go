// Package backup snapshots the sqlite database file and restores it.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "bakehouse/internal/log"
)

const (
	filePrefix = "bakery_"
	fileExt    = ".db"
	nameLayout = "2006-01-02_15-04-05"
)

var (
	ErrNoDatabase    = errors.New("backup: database file does not exist")
	ErrInvalidBackup = errors.New("backup: invalid backup name")
	ErrNotFound      = errors.New("backup: backup not found")
)

// SnapshotFunc writes a consistent copy of the live database to dest.
type SnapshotFunc func(ctx context.Context, dest string) error

// Config locates the database, the backups directory and the state file
// that remembers when the last backup ran.
type Config struct {
	DBPath    string
	Dir       string
	StatePath string
}

// Manager creates, lists and restores database backups.
type Manager struct {
	cfg      Config
	snapshot SnapshotFunc
	now      func() time.Time
}

// Backup describes one backup file.
type Backup struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type state struct {
	LastBackup time.Time `json:"last_backup"`
}

// NewManager builds a Manager. A nil snapshot copies the database file.
func NewManager(cfg Config, snapshot SnapshotFunc) *Manager {
	m := &Manager{cfg: cfg, snapshot: snapshot, now: time.Now}
	if m.snapshot == nil {
		m.snapshot = func(_ context.Context, dest string) error {
			return copyFile(cfg.DBPath, dest)
		}
	}
	return m
}

// VacuumInto snapshots a live sqlite database without closing it.
func VacuumInto(db *gorm.DB) SnapshotFunc {
	return func(ctx context.Context, dest string) error {
		return db.WithContext(ctx).Exec("VACUUM INTO ?", dest).Error
	}
}

// Backup writes a timestamped snapshot into the backups directory and
// records the time in the state file.
func (m *Manager) Backup(ctx context.Context) (Backup, error) {
	if _, err := os.Stat(m.cfg.DBPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Backup{}, ErrNoDatabase
		}
		return Backup{}, fmt.Errorf("stat database: %w", err)
	}
	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return Backup{}, fmt.Errorf("create backups dir: %w", err)
	}

	now := m.now()
	dest, err := m.freePath(now)
	if err != nil {
		return Backup{}, err
	}
	if err := m.snapshot(ctx, dest); err != nil {
		_ = os.Remove(dest)
		applog.Error(ctx, "database backup failed", "dest", dest, "error", err)
		return Backup{}, fmt.Errorf("snapshot database: %w", err)
	}
	if err := m.writeState(state{LastBackup: now.UTC()}); err != nil {
		return Backup{}, err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return Backup{}, fmt.Errorf("stat backup: %w", err)
	}
	applog.Info(ctx, "database backed up", "file", filepath.Base(dest), "bytes", info.Size())
	return Backup{Name: filepath.Base(dest), Size: info.Size(), CreatedAt: now}, nil
}

func (m *Manager) freePath(now time.Time) (string, error) {
	base := filePrefix + now.Format(nameLayout)
	for i := 0; i < 100; i++ {
		name := base + fileExt
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, fileExt)
		}
		path := filepath.Join(m.cfg.Dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
	}
	return "", fmt.Errorf("backup: no free file name for %s", base)
}

// List returns available backups, newest first.
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}

	backups := make([]Backup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{Name: entry.Name(), Size: info.Size(), CreatedAt: createdAt(entry.Name(), info)})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

func createdAt(name string, info fs.FileInfo) time.Time {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
	if len(stamp) >= len(nameLayout) {
		if t, err := time.ParseInLocation(nameLayout, stamp[:len(nameLayout)], time.Local); err == nil {
			return t
		}
	}
	return info.ModTime()
}

// Restore overwrites the database file with the named backup. The database
// must not be open while this runs.
func (m *Manager) Restore(ctx context.Context, name string) error {
	src, err := m.resolve(name)
	if err != nil {
		return err
	}

	tmp := m.cfg.DBPath + ".restore"
	if err := copyFile(src, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.cfg.DBPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace database: %w", err)
	}
	applog.Info(ctx, "database restored", "backup", name)
	return nil
}

// RestoreInto replaces the rows of tables in an open sqlite database with
// the rows held by the named backup. Tables are listed parents first so
// foreign keys hold while rows are deleted and copied back.
func (m *Manager) RestoreInto(ctx context.Context, db *gorm.DB, name string, tables []string) error {
	src, err := m.resolve(name)
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("ATTACH DATABASE ? AS snapshot", src).Error; err != nil {
			return fmt.Errorf("attach backup: %w", err)
		}
		defer func() {
			if err := conn.Exec("DETACH DATABASE snapshot").Error; err != nil {
				applog.Warn(ctx, "failed to detach backup", "backup", name, "error", err)
			}
		}()

		return conn.Transaction(func(tx *gorm.DB) error {
			for i := len(tables) - 1; i >= 0; i-- {
				if err := tx.Exec("DELETE FROM main." + quoteIdent(tables[i])).Error; err != nil {
					return fmt.Errorf("clear %s: %w", tables[i], err)
				}
			}
			for _, table := range tables {
				q := quoteIdent(table)
				if err := tx.Exec("INSERT INTO main." + q + " SELECT * FROM snapshot." + q).Error; err != nil {
					return fmt.Errorf("copy %s: %w", table, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		applog.Error(ctx, "live restore failed", "backup", name, "error", err)
		return err
	}
	applog.Info(ctx, "database restored in place", "backup", name, "tables", len(tables))
	return nil
}

func (m *Manager) resolve(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || !strings.HasSuffix(name, fileExt) {
		return "", ErrInvalidBackup
	}
	src := filepath.Join(m.cfg.Dir, name)
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat backup: %w", err)
	}
	return src, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// LastBackup returns the time of the last recorded backup, zero when none.
func (m *Manager) LastBackup() (time.Time, error) {
	data, err := os.ReadFile(m.cfg.StatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("read backup state: %w", err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return time.Time{}, fmt.Errorf("decode backup state: %w", err)
	}
	return st.LastBackup, nil
}

// Due reports whether interval has elapsed since the last backup.
func (m *Manager) Due(now time.Time, interval time.Duration) (bool, error) {
	last, err := m.LastBackup()
	if err != nil {
		return false, err
	}
	if last.IsZero() {
		return true, nil
	}
	return now.Sub(last) >= interval, nil
}

// AutoBackup returns a scheduler callback that takes a backup once interval
// has passed since the previous one.
func (m *Manager) AutoBackup(interval time.Duration) func(context.Context) {
	return func(ctx context.Context) {
		due, err := m.Due(m.now(), interval)
		if err != nil {
			applog.Error(ctx, "backup reminder check failed", "error", err)
			return
		}
		if !due {
			return
		}
		applog.Warn(ctx, "backup overdue, taking automatic backup", "interval", interval.String())
		if _, err := m.Backup(ctx); err != nil {
			applog.Error(ctx, "automatic backup failed", "error", err)
		}
	}
}

func (m *Manager) writeState(st state) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.cfg.StatePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := m.cfg.StatePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write backup state: %w", err)
	}
	return os.Rename(tmp, m.cfg.StatePath)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	return out.Close()
}
