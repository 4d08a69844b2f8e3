package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guttosm/flexledger/config"
	"github.com/guttosm/flexledger/internal/app"
	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/service"
	"github.com/guttosm/flexledger/internal/storage"
)

// initializeApp is an indirection for unit testing.
var initializeApp = app.InitializeApp

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flexledger",
		Short:         "Trade execution ledger and position reconciler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load configuration from environment or .env file
			config.LoadConfig()
			logger.Init()
		},
	}

	root.AddCommand(
		newMigrateCmd(),
		newPipelineCmd("sync", "Fetch new executions and append them to the ledger",
			func(ctx context.Context, p service.PipelineService) (service.RunResult, error) { return p.Sync(ctx) }),
		newReconcileCmd(),
		newPipelineCmd("run", "Sync, then reconcile positions and journal",
			func(ctx context.Context, p service.PipelineService) (service.RunResult, error) { return p.Run(ctx) }),
		newServeCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, dialect, err := app.InitDatabase(config.AppConfig)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := storage.Migrate(cmd.Context(), db, dialect); err != nil {
				return err
			}
			logger.L().Info().Str("dialect", dialect).Msg("migrations applied")
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var rebuild bool
	cmd := newPipelineCmd("reconcile", "Fold unreconciled ledger entries into positions and the journal",
		func(ctx context.Context, p service.PipelineService) (service.RunResult, error) {
			return p.Reconcile(ctx, rebuild)
		})
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Discard positions and journal and replay the whole ledger")
	return cmd
}

type stage func(ctx context.Context, p service.PipelineService) (service.RunResult, error)

// newPipelineCmd builds a one-shot command that runs a pipeline stage and exits.
// SIGINT/SIGTERM cancel the run.
func newPipelineCmd(use, short string, run stage) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := initializeApp(ctx)
			if err != nil {
				return fmt.Errorf("app init: %w", err)
			}
			defer cleanup()

			res, err := run(ctx, a.Pipeline)
			if err != nil {
				return err
			}
			logRun(use, res)
			return nil
		},
	}
}

func logRun(stage string, res service.RunResult) {
	ev := logger.L().Info().Str("stage", stage).Str("run_id", res.RunID)
	if s := res.Sync; s != nil {
		ev = ev.Int("fetched", s.TotalFetched()).Int("appended", s.Append.Appended).
			Int("duplicates", s.Append.Duplicates).Str("high_water_mark", s.Append.HighWaterMark)
	}
	if r := res.Reconcile; r != nil {
		ev = ev.Int("fills_applied", r.FillsApplied()).Int("opened", r.Opened).Int("closed", r.Closed).
			Int("orphans", r.Orphans).Int("stale", r.Stale).Int64("reconciled_through", r.ReconciledThrough)
	}
	ev.Msg("run finished")
}
