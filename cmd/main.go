package main

//
//  @title           flexledger API
//  @version         1.0
//  @description     Trade execution ledger and position reconciler for Interactive Brokers Flex reports.
//  @termsOfService  https://github.com/guttosm/flexledger
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/flexledger
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        positions
//  @tag.description Position aggregates built from the ledger
//
//  @tag.name        journal
//  @tag.description Trade journal mirrored from position aggregates
//
//  @tag.name        ledger
//  @tag.description Append-only execution ledger
//
//  @tag.name        pipeline
//  @tag.description Sync and reconciliation runs
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"os"

	_ "github.com/guttosm/flexledger/docs" // swagger docs
	"github.com/guttosm/flexledger/internal/logger"
)

// main is the entry point of the flexledger application.
//
// Commands:
//   - migrate:   applies database migrations.
//   - sync:      fetches new executions into the ledger.
//   - reconcile: folds unreconciled ledger entries into positions and the journal (--rebuild replays everything).
//   - run:       sync followed by reconcile.
//   - serve:     starts the REST API, optionally polling every POLL_INTERVAL.
func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.L().Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
