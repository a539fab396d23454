package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/migrations"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logger.Error("load migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// The pgx/v5 database driver registers under its own URL scheme.
	dsn := strings.Replace(cfg.PGDSN, "postgres://", "pgx5://", 1)
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		logger.Error("init migrator", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("close migrator", slog.Any("source_error", srcErr), slog.Any("db_error", dbErr))
		}
	}()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(args) < 2 {
			logger.Error("force requires a version")
			os.Exit(1)
		}
		var version int
		version, err = strconv.Atoi(args[1])
		if err == nil {
			err = m.Force(version)
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logger.Error("read version", slog.Any("error", verr))
			os.Exit(1)
		}
		logger.Info("schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("migrate "+args[0], slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrate " + args[0] + " complete")
}

func printUsage() {
	os.Stderr.WriteString(`usage: migrate <command>

commands:
  up        apply all pending migrations
  down      roll back the last migration
  version   print the current schema version
  force <v> force the schema version without running migrations
`)
}
