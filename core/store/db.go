package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"ticket-desk/config"
	"ticket-desk/core/utils"
)

// NewDB opens the SQL database for the sqlite or postgres driver and applies
// pending migrations.
func NewDB(ctx context.Context, cfg config.StorageConfig, logger *utils.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		path := cfg.EffectiveSQLitePath()
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
			}
		}
		db, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
		}
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA foreign_keys=ON",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
			}
		}
	case config.DriverPostgres:
		db, err = sql.Open("pgx", cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", err)
		}
	default:
		return nil, fmt.Errorf("store: driver %q has no sql backend", cfg.Driver)
	}
	if err := ApplyMigrations(ctx, db, cfg.Driver, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open builds the Persister selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *utils.Logger) (Persister, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", config.DriverJSON:
		return NewJSONFileStore(cfg.TicketsFile(), logger), nil
	case config.DriverSQLite, config.DriverPostgres:
		cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
		db, err := NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, cfg.Driver), nil
	}
	return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
}
