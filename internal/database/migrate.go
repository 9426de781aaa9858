package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// MigrateUp runs all pending migrations to bring the credential store to the latest version.
func MigrateUp(c *CredentialDB) error {
	m, err := newMigrate(c)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Closing m would close c.DB, which the caller owns

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version and whether it is dirty.
func MigrationVersion(c *CredentialDB) (uint, bool, error) {
	m, err := newMigrate(c)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrate(c *CredentialDB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFiles, "migrations/"+c.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	var dbDriver migratedb.Driver
	switch c.Driver {
	case "sqlite3":
		dbDriver, err = sqlite3.WithInstance(c.DB, &sqlite3.Config{})
	case "postgres":
		dbDriver, err = postgres.WithInstance(c.DB, &postgres.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, c.Driver, dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
