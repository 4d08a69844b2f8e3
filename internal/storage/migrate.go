package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"strings"

	goose "github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/guttosm/flexledger/internal/logger"
)

// Each dialect has its own directory. SQLite keeps decimals in TEXT columns
// so values survive the round trip without float rounding.
//
//go:embed migrations/*/*.sql
var migrations embed.FS

// Migrate applies every pending schema migration for the given dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{log: logger.With("migrate")})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, path.Join("migrations", dialect)); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through the structured logger.
type gooseLogger struct {
	log zerolog.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
