package service

import (
	"context"
	"sort"
	"sync"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/ingestion"
	"github.com/guttosm/flexledger/internal/storage"
)

// memRepo is an in-memory storage.Repository.
type memRepo struct {
	mu        sync.Mutex
	ledger    []models.LedgerEntry // newest first
	hwm       string
	hasHWM    bool
	positions map[int64]models.Position
	journal   map[int64]models.JournalEntry
	cursor    int64
	applies   int
	applyErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{positions: map[int64]models.Position{}, journal: map[int64]models.JournalEntry{}}
}

func (m *memRepo) HighWaterMark(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hwm, m.hasHWM, nil
}

func (m *memRepo) PrependExecutions(_ context.Context, execs []models.Execution, hwm string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var head int64
	if len(m.ledger) > 0 {
		head = m.ledger[0].Seq
	}
	fresh := make([]models.LedgerEntry, len(execs))
	for i := len(execs) - 1; i >= 0; i-- {
		head++
		fresh[i] = models.LedgerEntry{Seq: head, Execution: execs[i]}
	}
	m.ledger = append(fresh, m.ledger...)
	if hwm != "" {
		m.hwm, m.hasHWM = hwm, true
	}
	return nil
}

func (m *memRepo) ReadLedger(_ context.Context, limit int) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.LedgerEntry(nil), m.ledger...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) Positions(_ context.Context, f storage.PositionFilter) ([]models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Position
	for _, p := range m.positions {
		if (f.Status == "" || p.Status == f.Status) && (f.Symbol == "" || p.Symbol == f.Symbol) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) Journal(_ context.Context, limit int) ([]models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.JournalEntry
	for _, j := range m.journal {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PositionID > out[j].PositionID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) ReconciledThrough(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, nil
}

func (m *memRepo) ApplyReconciliation(_ context.Context, b models.ReconciliationBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applies++
	if b.Rebuild {
		m.positions = map[int64]models.Position{}
		m.journal = map[int64]models.JournalEntry{}
	}
	for _, p := range append(append([]models.Position(nil), b.UpdatedPositions...), b.NewPositions...) {
		m.positions[p.ID] = p
	}
	for _, j := range append(append([]models.JournalEntry(nil), b.UpdatedJournal...), b.NewJournal...) {
		m.journal[j.PositionID] = j
	}
	m.cursor = b.ReconciledThrough
	return nil
}

func (m *memRepo) Ping(context.Context) error { return nil }

// feedSyncer appends one queued batch per Sync call through a real Appender.
type feedSyncer struct {
	appender *ingestion.Appender
	batches  [][]models.Execution
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (f *feedSyncer) Sync(ctx context.Context) (ingestion.SyncReport, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return ingestion.SyncReport{}, f.err
	}
	var batch []models.Execution
	if len(f.batches) > 0 {
		batch, f.batches = f.batches[0], f.batches[1:]
	}
	res, err := f.appender.Append(ctx, batch)
	return ingestion.SyncReport{Normalized: len(batch), Append: res}, err
}
