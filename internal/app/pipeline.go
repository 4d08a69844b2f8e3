package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/guttosm/flexledger/config"
	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/flex"
	"github.com/guttosm/flexledger/internal/ingestion"
	"github.com/guttosm/flexledger/internal/service"
	"github.com/guttosm/flexledger/internal/storage"
)

// newSyncer wires flex client → normalizer → appender. Without flex credentials the
// returned syncer fails every run, so read-only use and reconciliation still work.
func newSyncer(cfg config.Config, repo storage.Repository) service.LedgerSyncer {
	if missing := cfg.Flex.Missing(); len(missing) > 0 {
		return unconfiguredSyncer{missing: missing}
	}

	client := flex.NewClient(flex.Options{
		Token:        cfg.Flex.Token,
		SendURL:      cfg.Flex.SendURL,
		StatementURL: cfg.Flex.StatementURL,
		Version:      cfg.Flex.Version,
		Timeout:      cfg.Flex.HTTPTimeout,
	}, nil)

	queries := []ingestion.Query{
		{ID: cfg.Flex.ActivityQueryID, Kind: models.SchemaActivity},
		{ID: cfg.Flex.ConfirmationQueryID, Kind: models.SchemaConfirmation},
	}

	return ingestion.NewSyncer(
		client,
		ingestion.NewNormalizer(cfg.Sync.ExcludedSymbols),
		ingestion.NewAppender(repo),
		queries,
		cfg.Flex.RequestPause,
	)
}

type unconfiguredSyncer struct {
	missing []string
}

func (u unconfiguredSyncer) Sync(context.Context) (ingestion.SyncReport, error) {
	return ingestion.SyncReport{}, fmt.Errorf("flex web service not configured, missing %s", strings.Join(u.missing, ", "))
}
