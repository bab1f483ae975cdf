package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationURL returns the golang-migrate database URL for opts.
func migrationURL(opts Options) string {
	if opts.Driver == DriverPostgres {
		return opts.URL
	}
	return "sqlite://" + opts.Path
}

// NewMigrator builds a migrate instance over the embedded migrations for the
// configured dialect. The caller must Close it.
func NewMigrator(opts Options) (*migrate.Migrate, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(Options{Driver: driver, Path: opts.Path, URL: opts.URL}))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending migration. An up-to-date schema is not an error.
func RunMigrations(opts Options) error {
	m, err := NewMigrator(opts)
	if err != nil {
		return apperrors.NewPersistence("migrate", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.NewPersistence("migrate", fmt.Errorf("failed to run migrations: %w", err))
	}
	return nil
}
