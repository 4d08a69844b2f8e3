package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/flexledger/config"
	"github.com/guttosm/flexledger/internal/api"
	"github.com/guttosm/flexledger/internal/service"
	"github.com/guttosm/flexledger/internal/storage"
)

// App holds the wired application components.
type App struct {
	DB        *sql.DB
	Repo      storage.Repository
	Pipeline  service.PipelineService
	Portfolio service.PortfolioService
	Router    *gin.Engine
}

// InitializeApp sets up all application dependencies and returns them together with a
// cleanup function for graceful shutdown.
//
// Responsibilities:
//   - Opens the configured database (PostgreSQL or SQLite) and applies pending migrations.
//   - Initializes the repository layer.
//   - Builds the pipeline (flex fetch, normalize, append, reconcile) and portfolio services.
//   - Configures the Gin router with all API routes plus health and readiness probes.
func InitializeApp(ctx context.Context) (*App, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	db, dialect, err := databaseOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := migrator(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := storage.NewRepository(db, dialect)

	a := &App{
		DB:        db,
		Repo:      repo,
		Pipeline:  service.NewPipelineService(repo, newSyncer(cfg, repo)),
		Portfolio: service.NewPortfolioService(repo),
	}

	a.Router = api.NewRouter(api.NewHandler(a.Portfolio, a.Pipeline), api.NewHealthHandler(repo.Ping))

	cleanup := func() {
		_ = db.Close()
	}

	return a, cleanup, nil
}
