package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/ingestion"
	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/metrics"
	"github.com/guttosm/flexledger/internal/reconcile"
	"github.com/guttosm/flexledger/internal/storage"
)

// ErrRunInProgress is returned when another sync or reconciliation holds the pipeline.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// LedgerSyncer fetches upstream executions into the ledger.
type LedgerSyncer interface {
	Sync(ctx context.Context) (ingestion.SyncReport, error)
}

// RunResult describes one pipeline run. Stages that did not run are nil.
type RunResult struct {
	RunID     string
	Sync      *ingestion.SyncReport
	Reconcile *reconcile.Report
}

// PipelineService drives the ledger pipeline: sync (fetch → normalize → append) and
// reconciliation (ledger → positions + journal).
//
// Only one run may be active at a time across every caller (CLI, poll loop, HTTP trigger);
// a concurrent caller gets ErrRunInProgress instead of waiting.
type PipelineService interface {
	Sync(ctx context.Context) (RunResult, error)
	Reconcile(ctx context.Context, rebuild bool) (RunResult, error)
	Run(ctx context.Context) (RunResult, error)
}

type pipelineService struct {
	repo   storage.Repository
	syncer LedgerSyncer
	mu     sync.Mutex
	log    zerolog.Logger
}

func NewPipelineService(repo storage.Repository, syncer LedgerSyncer) PipelineService {
	return &pipelineService{repo: repo, syncer: syncer, log: logger.With("pipeline")}
}

func (s *pipelineService) Sync(ctx context.Context) (RunResult, error) {
	return s.exclusive(ctx, "sync", func(ctx context.Context, res *RunResult) error {
		return s.sync(ctx, res)
	})
}

func (s *pipelineService) Reconcile(ctx context.Context, rebuild bool) (RunResult, error) {
	return s.exclusive(ctx, "reconcile", func(ctx context.Context, res *RunResult) error {
		return s.reconcile(ctx, rebuild, res)
	})
}

// Run syncs then reconciles. A failed sync skips reconciliation.
func (s *pipelineService) Run(ctx context.Context) (RunResult, error) {
	return s.exclusive(ctx, "run", func(ctx context.Context, res *RunResult) error {
		if err := s.sync(ctx, res); err != nil {
			return err
		}
		return s.reconcile(ctx, false, res)
	})
}

func (s *pipelineService) exclusive(ctx context.Context, stage string, fn func(context.Context, *RunResult) error) (RunResult, error) {
	if !s.mu.TryLock() {
		s.log.Warn().Str("stage", stage).Msg("pipeline busy, rejecting run")
		return RunResult{}, ErrRunInProgress
	}
	defer s.mu.Unlock()

	res := RunResult{RunID: uuid.NewString()}
	ctx = logger.L().With().Str("run_id", res.RunID).Logger().WithContext(ctx)
	err := fn(ctx, &res)
	return res, err
}

func (s *pipelineService) sync(ctx context.Context, res *RunResult) error {
	log := logger.Ctx(ctx, "pipeline")
	report, err := s.syncer.Sync(ctx)
	res.Sync = &report
	if err != nil {
		metrics.Runs.WithLabelValues("sync", "error").Inc()
		log.Error().Err(err).Msg("sync failed")
		return fmt.Errorf("sync: %w", err)
	}
	metrics.Runs.WithLabelValues("sync", "ok").Inc()
	log.Info().Int("fetched", report.TotalFetched()).Int("normalized", report.Normalized).
		Int("appended", report.Append.Appended).Str("high_water_mark", report.Append.HighWaterMark).
		Msg("sync complete")
	return nil
}

func (s *pipelineService) reconcile(ctx context.Context, rebuild bool, res *RunResult) error {
	log := logger.Ctx(ctx, "pipeline")
	err := s.doReconcile(ctx, rebuild, res)
	if err != nil {
		metrics.Runs.WithLabelValues("reconcile", "error").Inc()
		log.Error().Err(err).Bool("rebuild", rebuild).Msg("reconciliation failed")
		return fmt.Errorf("reconcile: %w", err)
	}
	metrics.Runs.WithLabelValues("reconcile", "ok").Inc()
	return nil
}

func (s *pipelineService) doReconcile(ctx context.Context, rebuild bool, res *RunResult) error {
	log := logger.Ctx(ctx, "pipeline")

	var (
		cursor   int64
		snapshot []models.Position
		err      error
	)
	if !rebuild {
		if cursor, err = s.repo.ReconciledThrough(ctx); err != nil {
			return fmt.Errorf("read cursor: %w", err)
		}
		if snapshot, err = s.repo.Positions(ctx, storage.PositionFilter{}); err != nil {
			return fmt.Errorf("load positions: %w", err)
		}
	}

	ledger, err := s.repo.ReadLedger(ctx, 0)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	r := reconcile.New(reconcile.NewBook(snapshot), reconcile.NewProjector())
	report := r.Run(ctx, ledger, cursor)
	res.Reconcile = &report

	batch := r.Batch(report, rebuild)
	if batch.Empty() && batch.ReconciledThrough == cursor {
		log.Info().Int64("reconciled_through", cursor).Msg("ledger already reconciled, nothing to write")
		return nil
	}
	if err := s.repo.ApplyReconciliation(ctx, batch); err != nil {
		return fmt.Errorf("persist reconciliation: %w", err)
	}
	log.Info().Bool("rebuild", rebuild).Int("new_positions", len(batch.NewPositions)).
		Int("updated_positions", len(batch.UpdatedPositions)).Int64("reconciled_through", batch.ReconciledThrough).
		Msg("reconciliation persisted")
	return nil
}
