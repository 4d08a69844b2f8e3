package reconcile

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/logger"
)

var t0 = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

func fill(seq int64, symbol string, side models.Side, qty int64, price string, at time.Time) models.LedgerEntry {
	return models.LedgerEntry{Seq: seq, Execution: models.Execution{
		Symbol:        symbol,
		Quantity:      qty,
		Price:         decimal.RequireFromString(price),
		TradedAt:      at,
		Side:          side,
		AssetCategory: "STK",
	}}
}

// stored turns chronological entries into the ledger's newest-first storage order.
func stored(entries ...models.LedgerEntry) []models.LedgerEntry {
	out := make([]models.LedgerEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out
}

func run(snapshot []models.Position, ledger []models.LedgerEntry, cursor int64) (*Book, *Reconciler, Report) {
	book := NewBook(snapshot)
	r := New(book, NewProjector())
	rep := r.Run(context.Background(), ledger, cursor)
	return book, r, rep
}

func requireDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "expected a value, got null")
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "want %s got %s", want, got.Decimal)
}

func TestRun_OpenThenCloseProducesClosedAggregate(t *testing.T) {
	ledger := stored(
		fill(1, "AAPL", models.SideOpen, 100, "150", t0),
		fill(2, "AAPL", models.SideClose, -100, "155", t0.Add(time.Hour)),
	)
	book, r, rep := run(nil, ledger, 0)

	positions := book.Positions()
	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, models.StatusClosed, p.Status)
	assert.Equal(t, int64(0), p.QuantityRemaining)
	assert.Equal(t, int64(100), p.OpenQuantity)
	assert.Equal(t, int64(-100), p.CloseQuantity)
	requireDecimal(t, "150", p.AvgEntryPrice)
	requireDecimal(t, "155", p.AvgExitPrice)
	assert.True(t, p.EntryAt.Equal(t0))
	assert.True(t, p.LastTouchedAt.Equal(t0.Add(time.Hour)))

	assert.Equal(t, 1, rep.Opened)
	assert.Equal(t, 1, rep.Closed)
	assert.Equal(t, int64(2), rep.ReconciledThrough)

	batch := r.Batch(rep, false)
	require.Len(t, batch.NewPositions, 1)
	assert.Empty(t, batch.UpdatedPositions)
	require.Len(t, batch.NewJournal, 1)
	assert.Empty(t, batch.UpdatedJournal)
	j := batch.NewJournal[0]
	assert.Equal(t, models.StatusClosed, j.Status)
	assert.Equal(t, "2024-01-10", j.EntryDate)
	assert.Equal(t, "09:30:00", j.EntryTime)
	requireDecimal(t, "150", j.AvgEntryPrice)
}

// captureLogs redirects the global logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Setenv("LOG_PRETTY", "false")
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })
	return &buf
}

func linesContaining(buf *bytes.Buffer, msg string) []string {
	var out []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, msg) {
			out = append(out, line)
		}
	}
	return out
}

func TestRun_OrphanCloseCreatesNothing(t *testing.T) {
	logs := captureLogs(t)
	book, r, rep := run(nil, stored(fill(1, "TSLA", models.SideClose, -50, "200", t0)), 0)

	assert.Empty(t, book.Positions())
	assert.Equal(t, 1, rep.Orphans)
	assert.True(t, r.Batch(rep, false).Empty())
	assert.Equal(t, int64(1), rep.ReconciledThrough)

	lines := linesContaining(logs, "skipping close fill, no open position exists")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"symbol":"TSLA"`)
	assert.Contains(t, lines[0], `"seq":1`)
}

func TestRun_LogsCarryContextFields(t *testing.T) {
	logs := captureLogs(t)
	ctx := logger.L().With().Str("run_id", "run-42").Logger().WithContext(context.Background())

	r := New(NewBook(nil), NewProjector())
	r.Run(ctx, stored(
		fill(1, "AAPL", models.SideOpen, 10, "100", t0),
		fill(2, "TSLA", models.SideClose, -5, "200", t0.Add(time.Minute)),
	), 0)

	for _, msg := range []string{"position opened", "skipping close fill, no open position exists", "trade processing complete"} {
		lines := linesContaining(logs, msg)
		require.Len(t, lines, 1, msg)
		assert.Contains(t, lines[0], `"run_id":"run-42"`)
		assert.Contains(t, lines[0], `"component":"reconciler"`)
	}
}

func TestRun_OrphanCloseLeavesClosedHistoryUntouched(t *testing.T) {
	closed := models.Position{ID: 4, Symbol: "TSLA", Status: models.StatusClosed, OpenQuantity: 10, CloseQuantity: -10, EntryAt: t0}
	book, r, rep := run([]models.Position{closed}, stored(fill(9, "TSLA", models.SideClose, -5, "200", t0.Add(time.Hour))), 0)

	assert.Equal(t, 1, rep.Orphans)
	assert.Equal(t, closed, book.Positions()[0])
	assert.Empty(t, r.Batch(rep, false).UpdatedPositions)
}

func TestRun_WeightedAverages(t *testing.T) {
	ledger := stored(
		fill(1, "MSFT", models.SideOpen, 100, "10", t0),
		fill(2, "MSFT", models.SideOpen, 50, "16", t0.Add(time.Minute)),
		fill(3, "MSFT", models.SideClose, -75, "20", t0.Add(2*time.Minute)),
		fill(4, "MSFT", models.SideClose, -75, "22", t0.Add(3*time.Minute)),
	)
	book, _, rep := run(nil, ledger, 0)

	p := book.Positions()[0]
	assert.Equal(t, models.StatusClosed, p.Status)
	assert.Equal(t, int64(150), p.OpenQuantity)
	assert.Equal(t, int64(-150), p.CloseQuantity)
	assert.True(t, decimal.NewFromInt(1800).Equal(p.SumEntryNotional))
	assert.True(t, decimal.NewFromInt(-3150).Equal(p.SumExitNotional))
	requireDecimal(t, "12", p.AvgEntryPrice)
	requireDecimal(t, "21", p.AvgExitPrice)
	assert.Equal(t, 2, rep.Applied)
	assert.Equal(t, 1, rep.Closed)
}

func TestRun_ShortPositionAverages(t *testing.T) {
	ledger := stored(
		fill(1, "SPY", models.SideOpen, -10, "500", t0),
		fill(2, "SPY", models.SideClose, 10, "490", t0.Add(time.Hour)),
	)
	book, _, _ := run(nil, ledger, 0)

	p := book.Positions()[0]
	assert.Equal(t, models.StatusClosed, p.Status)
	requireDecimal(t, "500", p.AvgEntryPrice)
	requireDecimal(t, "490", p.AvgExitPrice)
}

func TestRun_OpenAveragesStayBlank(t *testing.T) {
	book, r, rep := run(nil, stored(
		fill(1, "NVDA", models.SideOpen, 10, "900", t0),
		fill(2, "NVDA", models.SideClose, -4, "950", t0.Add(time.Hour)),
	), 0)

	p := book.Positions()[0]
	assert.Equal(t, models.StatusOpen, p.Status)
	assert.Equal(t, int64(6), p.QuantityRemaining)
	assert.False(t, p.AvgEntryPrice.Valid)
	assert.False(t, p.AvgExitPrice.Valid)

	j := r.Batch(rep, false).NewJournal[0]
	assert.False(t, j.AvgEntryPrice.Valid)
	assert.False(t, j.AvgExitPrice.Valid)
}

func TestRun_ZeroAccumulatedSideLeavesAverageBlank(t *testing.T) {
	odd := models.Position{ID: 1, Symbol: "GME", Status: models.StatusOpen, QuantityRemaining: 5, CloseQuantity: 0, OpenQuantity: 0,
		SumEntryNotional: decimal.Zero, SumExitNotional: decimal.Zero, EntryAt: t0}
	book, _, _ := run([]models.Position{odd}, stored(fill(3, "GME", models.SideClose, -5, "20", t0.Add(time.Hour))), 0)

	p := book.Positions()[0]
	assert.Equal(t, models.StatusClosed, p.Status)
	assert.False(t, p.AvgEntryPrice.Valid)
	requireDecimal(t, "20", p.AvgExitPrice)
}

func TestRun_StaleOpenIsSkipped(t *testing.T) {
	top := models.Position{ID: 7, Symbol: "AAPL", Status: models.StatusClosed, EntryAt: t0.Add(time.Hour)}

	cases := []struct {
		name string
		at   time.Time
		want Outcome
	}{
		{name: "older than top", at: t0, want: OutcomeStale},
		{name: "same second as top", at: t0.Add(time.Hour), want: OutcomeStale},
		{name: "unknown timestamp", at: time.Time{}, want: OutcomeStale},
		{name: "strictly newer", at: t0.Add(time.Hour + time.Second), want: OutcomeOpened},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			book := NewBook([]models.Position{top})
			r := New(book, NewProjector())
			got := r.Apply(context.Background(), fill(1, "MSFT", models.SideOpen, 1, "1", tc.at))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRun_TopWithoutEntryTimeAcceptsAnyOpen(t *testing.T) {
	top := models.Position{ID: 2, Symbol: "AAPL", Status: models.StatusClosed}
	book := NewBook([]models.Position{top})
	r := New(book, NewProjector())

	assert.Equal(t, OutcomeOpened, r.Apply(context.Background(), fill(1, "MSFT", models.SideOpen, 1, "1", t0)))
	assert.Equal(t, int64(3), book.Top().ID)
}

func TestRun_NewPositionAfterClosureIsDistinct(t *testing.T) {
	ledger := stored(
		fill(1, "AAPL", models.SideOpen, 10, "100", t0),
		fill(2, "AAPL", models.SideClose, -10, "110", t0.Add(time.Hour)),
		fill(3, "AAPL", models.SideOpen, 5, "120", t0.Add(2*time.Hour)),
	)
	book, _, _ := run(nil, ledger, 0)

	positions := book.Positions()
	require.Len(t, positions, 2)
	assert.Equal(t, models.StatusOpen, positions[0].Status)
	assert.Equal(t, int64(2), positions[0].ID)
	assert.Equal(t, models.StatusClosed, positions[1].Status)
	assert.Equal(t, int64(2), book.OpenFor("AAPL").ID)
}

func TestRun_UpdatesPreExistingPositionInPlace(t *testing.T) {
	open := models.Position{ID: 3, Symbol: "AMD", Status: models.StatusOpen, QuantityRemaining: 20, OpenQuantity: 20,
		SumEntryNotional: decimal.NewFromInt(2000), SumExitNotional: decimal.Zero, EntryAt: t0, LastTouchedAt: t0}
	book, r, rep := run([]models.Position{open}, stored(fill(11, "AMD", models.SideClose, -20, "110", t0.Add(time.Hour))), 10)

	batch := r.Batch(rep, false)
	assert.Empty(t, batch.NewPositions)
	require.Len(t, batch.UpdatedPositions, 1)
	assert.Equal(t, int64(3), batch.UpdatedPositions[0].ID)
	assert.Equal(t, models.StatusClosed, batch.UpdatedPositions[0].Status)
	require.Len(t, batch.UpdatedJournal, 1)
	assert.Equal(t, int64(3), batch.UpdatedJournal[0].PositionID)
	assert.Equal(t, int64(11), batch.ReconciledThrough)
	assert.Nil(t, book.OpenFor("AMD"))
}

func TestRun_IdempotentOverUnchangedLedger(t *testing.T) {
	ledger := stored(
		fill(1, "AAPL", models.SideOpen, 100, "150", t0),
		fill(2, "MSFT", models.SideOpen, 10, "400", t0.Add(time.Minute)),
		fill(3, "AAPL", models.SideClose, -100, "155", t0.Add(time.Hour)),
		fill(4, "TSLA", models.SideClose, -5, "200", t0.Add(2*time.Hour)),
	)
	first, _, rep1 := run(nil, ledger, 0)

	second, r2, rep2 := run(first.Positions(), ledger, rep1.ReconciledThrough)
	assert.Equal(t, first.Positions(), second.Positions())
	assert.True(t, r2.Batch(rep2, false).Empty())
	assert.Equal(t, 4, rep2.AlreadyReconciled)
	assert.Equal(t, rep1.ReconciledThrough, rep2.ReconciledThrough)
}

func TestRun_ReplayWithoutCursorDoesNotDuplicateClosedPositions(t *testing.T) {
	ledger := stored(
		fill(1, "AAPL", models.SideOpen, 100, "150", t0),
		fill(2, "AAPL", models.SideClose, -100, "155", t0.Add(time.Hour)),
	)
	first, _, _ := run(nil, ledger, 0)

	second, r2, rep2 := run(first.Positions(), ledger, 0)
	assert.Equal(t, first.Positions(), second.Positions())
	assert.Equal(t, 1, rep2.Stale)
	assert.Equal(t, 1, rep2.Orphans)
	assert.True(t, r2.Batch(rep2, false).Empty())
}

func TestRun_SplitBatchesMatchSinglePass(t *testing.T) {
	chronological := []models.LedgerEntry{
		fill(1, "AAPL", models.SideOpen, 100, "150", t0),
		fill(2, "MSFT", models.SideOpen, 10, "400", t0.Add(time.Minute)),
		fill(3, "AAPL", models.SideOpen, 50, "153", t0.Add(2*time.Minute)),
		fill(4, "AAPL", models.SideClose, -150, "160", t0.Add(3*time.Minute)),
		fill(5, "MSFT", models.SideClose, -10, "390", t0.Add(4*time.Minute)),
		fill(6, "AAPL", models.SideOpen, 7, "161", t0.Add(5*time.Minute)),
	}
	whole, _, _ := run(nil, stored(chronological...), 0)

	for split := 1; split < len(chronological); split++ {
		firstPart, _, rep := run(nil, stored(chronological[:split]...), 0)
		final, _, _ := run(firstPart.Positions(), stored(chronological...), rep.ReconciledThrough)
		assert.Equal(t, whole.Positions(), final.Positions(), "split at %d", split)
	}
}
