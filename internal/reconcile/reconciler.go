package reconcile

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/metrics"
)

// Outcome is what happened to one ledger entry.
type Outcome string

const (
	// OutcomeApplied: the fill was added to an existing Open aggregate that stays open.
	OutcomeApplied Outcome = "applied"
	// OutcomeClosed: the fill brought an existing aggregate's remaining quantity to zero.
	OutcomeClosed Outcome = "closed"
	// OutcomeOpened: the fill created a new Open aggregate.
	OutcomeOpened Outcome = "opened"
	// OutcomeOrphan: a Close fill with no Open aggregate for its symbol; ignored.
	OutcomeOrphan Outcome = "orphan"
	// OutcomeStale: an Open fill not strictly newer than the top aggregate's entry time; ignored.
	OutcomeStale Outcome = "stale"
	// OutcomeAlreadyReconciled: the entry is at or below the reconciliation cursor.
	OutcomeAlreadyReconciled Outcome = "already_reconciled"
)

// Report counts outcomes of one pass.
type Report struct {
	Consumed          int
	Applied           int
	Opened            int
	Closed            int
	Orphans           int
	Stale             int
	AlreadyReconciled int
	ReconciledThrough int64
}

// FillsApplied is the number of fills that mutated or created an aggregate.
func (r Report) FillsApplied() int { return r.Applied + r.Closed + r.Opened }

// Reconciler folds ledger entries into position aggregates, in chronological order,
// mirroring every aggregate mutation into the journal projector.
type Reconciler struct {
	book    *Book
	journal *Projector
}

// New builds a Reconciler over book, writing journal rows to journal.
func New(book *Book, journal *Projector) *Reconciler {
	return &Reconciler{book: book, journal: journal}
}

// Run consumes the full ledger as stored (newest first), oldest entry first.
// Entries with a sequence at or below cursor were consumed by an earlier pass and are skipped.
// Log lines inherit the fields of the logger carried by ctx.
func (r *Reconciler) Run(ctx context.Context, ledger []models.LedgerEntry, cursor int64) Report {
	log := logger.Ctx(ctx, "reconciler")
	rep := Report{ReconciledThrough: cursor}
	for i := len(ledger) - 1; i >= 0; i-- {
		entry := ledger[i]
		if entry.Seq != 0 && entry.Seq <= cursor {
			rep.AlreadyReconciled++
			continue
		}

		rep.Consumed++
		switch r.record(log, entry) {
		case OutcomeApplied:
			rep.Applied++
		case OutcomeClosed:
			rep.Closed++
		case OutcomeOpened:
			rep.Opened++
		case OutcomeOrphan:
			rep.Orphans++
		case OutcomeStale:
			rep.Stale++
		}
		if entry.Seq > rep.ReconciledThrough {
			rep.ReconciledThrough = entry.Seq
		}
	}

	log.Info().Int("consumed", rep.Consumed).Int("applied", rep.Applied).Int("opened", rep.Opened).
		Int("closed", rep.Closed).Int("orphans", rep.Orphans).Int("stale", rep.Stale).
		Int("already_reconciled", rep.AlreadyReconciled).Int64("reconciled_through", rep.ReconciledThrough).
		Msg("trade processing complete")
	return rep
}

// Apply folds a single ledger entry into the book.
func (r *Reconciler) Apply(ctx context.Context, entry models.LedgerEntry) Outcome {
	return r.record(logger.Ctx(ctx, "reconciler"), entry)
}

func (r *Reconciler) record(log zerolog.Logger, entry models.LedgerEntry) Outcome {
	out := r.apply(log, entry)
	metrics.Fills.WithLabelValues(string(out)).Inc()
	return out
}

func (r *Reconciler) apply(base zerolog.Logger, entry models.LedgerEntry) Outcome {
	log := base.With().Int64("seq", entry.Seq).Str("symbol", entry.Symbol).Str("side", string(entry.Side)).
		Int64("quantity", entry.Quantity).Str("traded_at", entry.TradeDate()+"T"+entry.TradeTime()).Logger()

	if pos := r.book.OpenFor(entry.Symbol); pos != nil {
		closed := applyFill(pos, entry.Execution)
		r.book.Touch(pos)
		r.journal.Updated(pos)
		if closed {
			log.Info().Int64("position_id", pos.ID).Msg("position closed")
			return OutcomeClosed
		}
		log.Debug().Int64("position_id", pos.ID).Int64("remaining", pos.QuantityRemaining).Msg("fill applied to open position")
		return OutcomeApplied
	}

	if entry.Side == models.SideClose {
		log.Info().Msg("skipping close fill, no open position exists")
		return OutcomeOrphan
	}

	if top := r.book.Top(); top != nil && !top.EntryAt.IsZero() && !entry.TradedAt.After(top.EntryAt) {
		log.Info().Str("top_entry", top.EntryAt.Format(models.TimestampLayout)).
			Msg("open fill is not newer than the latest position, skipping")
		return OutcomeStale
	}

	pos := r.book.Create(openPosition(entry.Execution))
	r.journal.Created(pos)
	log.Info().Int64("position_id", pos.ID).Msg("position opened")
	return OutcomeOpened
}

// Batch collects every pending mutation for persistence.
func (r *Reconciler) Batch(rep Report, rebuild bool) models.ReconciliationBatch {
	return models.ReconciliationBatch{
		Rebuild:           rebuild,
		NewPositions:      r.book.Created(),
		UpdatedPositions:  r.book.Updated(),
		NewJournal:        r.journal.Inserts(),
		UpdatedJournal:    r.journal.Updates(),
		ReconciledThrough: rep.ReconciledThrough,
	}
}

// openPosition seeds a new Open aggregate from its first fill.
func openPosition(e models.Execution) models.Position {
	return models.Position{
		Symbol:            e.Symbol,
		Status:            models.StatusOpen,
		QuantityRemaining: e.Quantity,
		OpenQuantity:      e.Quantity,
		SumEntryNotional:  e.Notional(),
		SumExitNotional:   decimal.Zero,
		AssetCategory:     e.AssetCategory,
		EntryAt:           e.TradedAt,
		LastTouchedAt:     e.TradedAt,
	}
}

// applyFill adds e to p in place and reports whether p just closed.
func applyFill(p *models.Position, e models.Execution) bool {
	p.QuantityRemaining += e.Quantity
	switch e.Side {
	case models.SideOpen:
		p.OpenQuantity += e.Quantity
		p.SumEntryNotional = p.SumEntryNotional.Add(e.Notional())
	case models.SideClose:
		p.CloseQuantity += e.Quantity
		p.SumExitNotional = p.SumExitNotional.Add(e.Notional())
	}
	p.LastTouchedAt = e.TradedAt

	if p.QuantityRemaining != 0 {
		return false
	}
	p.Status = models.StatusClosed
	p.AvgEntryPrice = average(p.SumEntryNotional, p.OpenQuantity)
	p.AvgExitPrice = average(p.SumExitNotional, p.CloseQuantity)
	return true
}

// average is |notional| / |qty|, or null when qty is zero.
func average(notional decimal.Decimal, qty int64) decimal.NullDecimal {
	if qty == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(notional.Abs().Div(decimal.NewFromInt(qty).Abs()))
}
