package app

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql

	"github.com/guttosm/flexledger/config"
)

// InitSQLite opens the single-file ledger database at cfg.Store.SQLitePath, creating its
// directory when needed. The pool is limited to one connection: SQLite allows a single writer.
func InitSQLite(cfg config.Config) (*sql.DB, error) {
	path := cfg.Store.SQLitePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sqlOpener("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return db, nil
}
