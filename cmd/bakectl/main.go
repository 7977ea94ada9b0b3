// Command bakectl runs maintenance tasks against the bakery database:
// backups, restores, user accounts and bulk stock imports.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"

	"bakehouse/internal/auth"
	"bakehouse/internal/backup"
	"bakehouse/internal/config"
	"bakehouse/internal/db"
)

const usage = `usage: bakectl <command> [arguments]

commands:
  backup                      snapshot the database into the backups directory
  backups                     list backups, newest first
  restore <name>              replace the database with a backup (stop the server first)
  adduser [-role r] <name>    create an account; the password is read from stdin
  import-stock <file.csv>     add or restock ingredients from a stock sheet
`

var (
	loadConfigFunc = config.Load
	openDatabase   = db.Configure
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "bakectl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	switch args[0] {
	case "backup":
		return runBackup(ctx, cfg, stdout)
	case "backups":
		return runListBackups(cfg, stdout)
	case "restore":
		if len(args) != 2 {
			return errors.New("restore takes exactly one backup name")
		}
		return runRestore(ctx, cfg, args[1], stdout)
	case "adduser":
		return runAddUser(ctx, cfg, args[1:], stdin, stdout)
	case "import-stock":
		if len(args) != 2 {
			return errors.New("import-stock takes exactly one csv file")
		}
		return runImportStock(ctx, cfg, args[1], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func backupManager(cfg config.Config, snapshot backup.SnapshotFunc) (*backup.Manager, error) {
	if strings.TrimSpace(cfg.Database.URL) != "" {
		return nil, errors.New("backups are only available for a local sqlite database")
	}
	return backup.NewManager(backup.Config{
		DBPath:    cfg.Database.Path,
		Dir:       cfg.Backup.Dir,
		StatePath: cfg.Backup.StatePath,
	}, snapshot), nil
}

func open(cfg config.Config) (*gorm.DB, func(), error) {
	database, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return database, closeFn, nil
}

func runBackup(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	if strings.TrimSpace(cfg.Database.URL) != "" {
		return errors.New("backups are only available for a local sqlite database")
	}
	database, closeFn, err := open(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	manager, err := backupManager(cfg, backup.VacuumInto(database))
	if err != nil {
		return err
	}
	b, err := manager.Backup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Backed up to %s (%d bytes)\n", b.Name, b.Size)
	return nil
}

func runListBackups(cfg config.Config, stdout io.Writer) error {
	manager, err := backupManager(cfg, nil)
	if err != nil {
		return err
	}
	backups, err := manager.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Fprintln(stdout, "No backups found.")
		return nil
	}
	for _, b := range backups {
		fmt.Fprintf(stdout, "%s\t%d\t%s\n", b.Name, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runRestore(ctx context.Context, cfg config.Config, name string, stdout io.Writer) error {
	manager, err := backupManager(cfg, nil)
	if err != nil {
		return err
	}
	if err := manager.Restore(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Restored %s into %s\n", name, cfg.Database.Path)
	return nil
}

func runAddUser(ctx context.Context, cfg config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("adduser", flag.ContinueOnError)
	flags.SetOutput(stdout)
	role := flags.String("role", "staff", "account role: admin or staff")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("adduser takes exactly one username")
	}

	password, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	database, closeFn, err := open(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	user, err := auth.NewStore(database).CreateUser(ctx, flags.Arg(0), password, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Created %s account %s\n", user.Role, user.Username)
	return nil
}
