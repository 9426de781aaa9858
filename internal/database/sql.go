package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go-cms/internal/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/fx"
)

// CredentialDB is the relational store holding login credentials
type CredentialDB struct {
	DB     *sql.DB
	Driver string
}

// OpenCredentialDB opens the configured SQL driver and verifies the connection
func OpenCredentialDB(ctx context.Context, cfg *config.Config) (*CredentialDB, error) {
	switch cfg.CredentialDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported credential driver %q", cfg.CredentialDriver)
	}

	db, err := sql.Open(cfg.CredentialDriver, cfg.CredentialDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}

	if cfg.CredentialDriver == "sqlite3" {
		// sqlite serialises writers anyway
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping credential database: %w", err)
	}

	return &CredentialDB{DB: db, Driver: cfg.CredentialDriver}, nil
}

// NewCredentialDB opens the credential store, applies pending migrations and
// closes the handle when the application stops.
func NewCredentialDB(lc fx.Lifecycle, cfg *config.Config) (*CredentialDB, error) {
	cdb, err := OpenCredentialDB(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	if err := MigrateUp(cdb); err != nil {
		cdb.DB.Close()
		return nil, err
	}

	log.Printf("Credential store ready (%s)", cdb.Driver)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cdb.DB.Close()
		},
	})

	return cdb, nil
}

// Rebind rewrites '?' placeholders into the driver's native form
func (c *CredentialDB) Rebind(query string) string {
	if c.Driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
