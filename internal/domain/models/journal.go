package models

import "github.com/shopspring/decimal"

// JournalEntry is the display-oriented mirror of a Position's lifecycle.
// PositionID ties the row to the aggregate it mirrors; there is exactly one row per position.
type JournalEntry struct {
	PositionID    int64
	EntryDate     string
	EntryTime     string
	Status        PositionStatus
	Symbol        string
	OpenQuantity  int64
	AvgEntryPrice decimal.NullDecimal
	AvgExitPrice  decimal.NullDecimal
}

// JournalEntryFor projects a position into its journal row.
func JournalEntryFor(p *Position) JournalEntry {
	return JournalEntry{
		PositionID:    p.ID,
		EntryDate:     FormatDate(p.EntryAt),
		EntryTime:     FormatClock(p.EntryAt),
		Status:        p.Status,
		Symbol:        p.Symbol,
		OpenQuantity:  p.OpenQuantity,
		AvgEntryPrice: p.AvgEntryPrice,
		AvgExitPrice:  p.AvgExitPrice,
	}
}

// ReconciliationBatch carries every mutation produced by one reconciliation pass so the
// storage layer can apply them in a single transaction.
//
// Fields:
//   - Rebuild: drop all positions and journal rows before applying.
//   - NewPositions: positions created during the pass, oldest first, in final state.
//   - UpdatedPositions: pre-existing positions touched during the pass, in final state.
//   - NewJournal / UpdatedJournal: matching journal rows.
//   - ReconciledThrough: highest ledger sequence consumed by the pass.
type ReconciliationBatch struct {
	Rebuild           bool
	NewPositions      []Position
	UpdatedPositions  []Position
	NewJournal        []JournalEntry
	UpdatedJournal    []JournalEntry
	ReconciledThrough int64
}

// Empty reports whether applying the batch would change nothing besides the cursor.
func (b ReconciliationBatch) Empty() bool {
	return !b.Rebuild && len(b.NewPositions) == 0 && len(b.UpdatedPositions) == 0 &&
		len(b.NewJournal) == 0 && len(b.UpdatedJournal) == 0
}
