package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/flex"
	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/metrics"
)

// Query is one saved upstream query and the schema its rows use.
type Query struct {
	ID   string
	Kind models.SchemaKind
}

// SyncReport summarizes one fetch → normalize → append cycle.
type SyncReport struct {
	Fetched    map[models.SchemaKind]int
	Normalized int
	Append     AppendResult
}

// TotalFetched is the number of raw rows received across all queries.
func (r SyncReport) TotalFetched() int {
	total := 0
	for _, n := range r.Fetched {
		total += n
	}
	return total
}

// Syncer fetches every configured query in order, pausing between requests to respect the
// upstream rate limit, and feeds the combined batch through the normalizer and appender.
type Syncer struct {
	fetcher    flex.Fetcher
	normalizer *Normalizer
	appender   *Appender
	queries    []Query
	pause      time.Duration
}

// NewSyncer wires a Syncer. Queries with an empty ID are ignored.
func NewSyncer(fetcher flex.Fetcher, normalizer *Normalizer, appender *Appender, queries []Query, pause time.Duration) *Syncer {
	active := make([]Query, 0, len(queries))
	for _, q := range queries {
		if q.ID != "" {
			active = append(active, q)
		}
	}
	return &Syncer{
		fetcher:    fetcher,
		normalizer: normalizer,
		appender:   appender,
		queries:    active,
		pause:      pause,
	}
}

// Sync runs one cycle. A failed query contributes zero executions and never fails the run;
// only ledger errors (including an invalid high-water-mark) are returned.
func (s *Syncer) Sync(ctx context.Context) (SyncReport, error) {
	log := logger.Ctx(ctx, "sync")
	report := SyncReport{Fetched: make(map[models.SchemaKind]int, len(s.queries))}
	var all []models.Execution

	for i, q := range s.queries {
		if i > 0 && s.pause > 0 {
			if err := sleep(ctx, s.pause); err != nil {
				return report, err
			}
		}

		log.Info().Str("schema", q.Kind.String()).Msg("fetching executions")
		rows, err := s.fetcher.Fetch(ctx, q.ID, q.Kind)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			log.Warn().Str("schema", q.Kind.String()).Err(err).Msg("fetch failed, treating as zero executions")
			metrics.Runs.WithLabelValues("fetch_"+q.Kind.String(), "failed").Inc()
			continue
		}
		metrics.ExecutionsFetched.WithLabelValues(q.Kind.String()).Add(float64(len(rows)))
		report.Fetched[q.Kind] += len(rows)

		execs := s.normalizer.NormalizeBatch(ctx, q.Kind, rows)
		log.Info().Str("schema", q.Kind.String()).Int("rows", len(rows)).Int("executions", len(execs)).Msg("fetched executions")
		all = append(all, execs...)
	}
	report.Normalized = len(all)

	res, err := s.appender.Append(ctx, all)
	report.Append = res
	if err != nil {
		return report, fmt.Errorf("append: %w", err)
	}
	return report, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
