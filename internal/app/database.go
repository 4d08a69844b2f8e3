package app

import (
	"database/sql"
	"fmt"

	"github.com/guttosm/flexledger/config"
	"github.com/guttosm/flexledger/internal/storage"
)

// InitDatabase opens the database selected by cfg.Store.Driver and returns it together
// with the storage dialect to use.
func InitDatabase(cfg config.Config) (*sql.DB, string, error) {
	switch cfg.Store.Driver {
	case "postgres", "":
		db, err := InitPostgres(cfg)
		return db, storage.DialectPostgres, err
	case "sqlite":
		db, err := InitSQLite(cfg)
		return db, storage.DialectSQLite, err
	default:
		return nil, "", fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// databaseOpener and migrator are indirections used by InitializeApp; overridden in tests to
// avoid real connections.
var (
	databaseOpener = InitDatabase
	migrator       = storage.Migrate
)
