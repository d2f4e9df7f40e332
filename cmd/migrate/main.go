package main

import (
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"posnotif/internal/config"
	"posnotif/internal/logging"
)

func main() {
	cfg := config.LoadMigrate()
	logging.Init("migrate", "text")

	if len(os.Args) < 2 {
		slog.Error("usage: migrate <up|down|version|force N>")
		os.Exit(2)
	}

	m, err := migrate.New(cfg.Path, cfg.DSN)
	if err != nil {
		slog.Error("migrate init failed", "err", err, "path", cfg.Path)
		os.Exit(1)
	}
	defer m.Close()

	if err := run(m, os.Args[1:]); err != nil {
		slog.Error("migrate failed", "err", err, "cmd", os.Args[1])
		m.Close()
		os.Exit(1)
	}
}

func run(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		slog.Info("migrations applied")
	case "down":
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		slog.Info("migration rolled back")
	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return err
		}
		slog.Info("migration version", "version", v, "dirty", dirty)
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		if err := m.Force(v); err != nil {
			return err
		}
		slog.Info("migration version forced", "version", v)
	default:
		return errors.New("unknown command " + strconv.Quote(args[0]))
	}
	return nil
}
