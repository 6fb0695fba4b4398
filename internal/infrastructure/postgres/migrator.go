package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/iho/coinledger/migrations"
)

// Migrator applies schema migrations to one database.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator opens the migrations in dir, or the embedded set when dir is empty.
func NewMigrator(databaseURL, dir string) (*Migrator, error) {
	var (
		m   *migrate.Migrate
		err error
	)

	if dir == "" {
		src, srcErr := iofs.New(migrations.FS, ".")
		if srcErr != nil {
			return nil, fmt.Errorf("failed to open embedded migrations: %w", srcErr)
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, databaseURL)
	} else {
		m, err = migrate.New("file://"+dir, databaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. It reports false when the schema was current.
func (g *Migrator) Up() (bool, error) {
	if err := g.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("failed to run migrations: %w", err)
	}
	return true, nil
}

// Down rolls back the last migration.
func (g *Migrator) Down() error {
	if err := g.m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// Version reports the schema version and whether the last migration failed midway.
// An unmigrated database is version 0.
func (g *Migrator) Version() (uint, bool, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and database handles.
func (g *Migrator) Close() {
	srcErr, dbErr := g.m.Close()
	if srcErr != nil || dbErr != nil {
		slog.Warn("database migrations: close failed", "source_error", srcErr, "database_error", dbErr)
	}
}

// RunMigrations applies all pending migrations from dir (embedded when empty).
func RunMigrations(databaseURL, dir string) error {
	g, err := NewMigrator(databaseURL, dir)
	if err != nil {
		return err
	}
	defer g.Close()

	applied, err := g.Up()
	if err != nil {
		return err
	}
	slog.Info("database migrations: done", "applied", applied)
	return nil
}
