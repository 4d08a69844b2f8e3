package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/metrics"
)

// ErrInvalidHighWaterMark aborts an append before any mutation: the persisted
// high-water-mark cannot be parsed, so duplicates cannot be told apart from new fills.
var ErrInvalidHighWaterMark = errors.New("invalid ledger high-water-mark")

// LedgerStore is the ledger persistence the appender depends on.
//
// HighWaterMark returns the persisted value verbatim; ok is false when none was ever stored.
// PrependExecutions stores execs (sorted newest first) at the head of the ledger and writes
// the new high-water-mark in the same transaction; an empty mark leaves the stored one untouched.
type LedgerStore interface {
	HighWaterMark(ctx context.Context) (value string, ok bool, err error)
	PrependExecutions(ctx context.Context, execs []models.Execution, highWaterMark string) error
}

// AppendResult reports what one append did.
type AppendResult struct {
	Received      int
	Appended      int
	Duplicates    int
	HighWaterMark string
	Advanced      bool
}

// Appender merges normalized batches into the append-only ledger, deduplicating by the
// high-water-mark: only executions strictly newer than it are kept. Equal timestamps are
// treated as duplicates since upstream timestamps only have second resolution.
type Appender struct {
	store LedgerStore
}

// NewAppender builds an Appender over store.
func NewAppender(store LedgerStore) *Appender {
	return &Appender{store: store}
}

// Append filters batch against the high-water-mark, prepends the survivors newest-first
// and advances the mark. An empty survivor set is a logged no-op.
func (a *Appender) Append(ctx context.Context, batch []models.Execution) (AppendResult, error) {
	log := logger.Ctx(ctx, "appender")
	res := AppendResult{Received: len(batch)}

	raw, ok, err := a.store.HighWaterMark(ctx)
	if err != nil {
		return res, fmt.Errorf("read high-water-mark: %w", err)
	}

	survivors := batch
	if ok {
		mark, err := ParseHighWaterMark(raw)
		if err != nil {
			log.Error().Str("high_water_mark", raw).Err(err).Msg("persisted high-water-mark is invalid, aborting")
			return res, fmt.Errorf("%w: %q", ErrInvalidHighWaterMark, raw)
		}
		res.HighWaterMark = mark.Format(models.TimestampLayout)
		log.Info().Str("high_water_mark", res.HighWaterMark).Msg("comparing against high-water-mark")
		survivors = newerThan(batch, mark)
	} else {
		log.Info().Int("executions", len(batch)).Msg("ledger empty, accepting every execution")
	}
	res.Duplicates = len(batch) - len(survivors)

	if len(survivors) == 0 {
		log.Info().Int("received", res.Received).Int("duplicates", res.Duplicates).Msg("no new executions to append")
		return res, nil
	}

	sorted := SortNewestFirst(survivors)
	newest := sorted[0].TradedAt
	next := res.HighWaterMark
	if !newest.IsZero() {
		next = newest.Format(models.TimestampLayout)
	}

	if err := a.store.PrependExecutions(ctx, sorted, next); err != nil {
		return res, fmt.Errorf("prepend executions: %w", err)
	}

	res.Appended = len(sorted)
	res.Advanced = next != res.HighWaterMark
	res.HighWaterMark = next
	metrics.LedgerAppended.Add(float64(res.Appended))
	log.Info().Int("appended", res.Appended).Int("duplicates", res.Duplicates).
		Str("high_water_mark", res.HighWaterMark).Msg("executions appended to ledger")
	return res, nil
}

// ParseHighWaterMark accepts "YYYY-MM-DDTHH:MM:SS" (UTC) and RFC 3339.
func ParseHighWaterMark(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(models.TimestampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// SortNewestFirst returns a copy of execs ordered by TradedAt descending. Ties keep
// their batch order; unknown timestamps sort last.
func SortNewestFirst(execs []models.Execution) []models.Execution {
	out := make([]models.Execution, len(execs))
	copy(out, execs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TradedAt.After(out[j].TradedAt)
	})
	return out
}

func newerThan(batch []models.Execution, mark time.Time) []models.Execution {
	out := make([]models.Execution, 0, len(batch))
	for _, e := range batch {
		if e.TradedAt.After(mark) {
			out = append(out, e)
		}
	}
	return out
}
