package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/flexledger/config"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

const pingTimeout = 5 * time.Second

// postgresDSN prefers the URL computed by config.LoadConfig and falls back to composing one
// from the individual settings.
func postgresDSN(cfg config.PostgresConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
}

// InitPostgres opens and pings a PostgreSQL pool for the ledger store.
//
// The pool stays small: the pipeline is a single writer and the API only serves reads.
//
// Example usage:
//
//	db, err := app.InitPostgres(config.AppConfig)
//	if err != nil {
//	    log.Fatalf("failed to connect: %v", err)
//	}
//	defer db.Close()
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	db, err := sqlOpener("postgres", postgresDSN(cfg.Postgres))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}
