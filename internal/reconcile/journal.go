package reconcile

import "github.com/guttosm/flexledger/internal/domain/models"

// Projector mirrors aggregate mutations into journal rows. It only buffers writes and
// never reads stored journal rows back.
//
// A position created during the pass becomes one pending insert (head of the journal);
// later mutations of that same position rewrite the pending insert. Mutations of
// pre-existing positions become in-place updates of their row.
type Projector struct {
	inserts []int64
	updates []int64
	rows    map[int64]models.JournalEntry
}

// NewProjector returns an empty Projector.
func NewProjector() *Projector {
	return &Projector{
		rows: make(map[int64]models.JournalEntry),
	}
}

// Created records the journal row of a newly created aggregate.
func (p *Projector) Created(pos *models.Position) {
	if _, ok := p.rows[pos.ID]; !ok {
		p.inserts = append(p.inserts, pos.ID)
	}
	p.rows[pos.ID] = models.JournalEntryFor(pos)
}

// Updated overwrites the journal row associated with pos.
func (p *Projector) Updated(pos *models.Position) {
	if _, ok := p.rows[pos.ID]; !ok {
		p.updates = append(p.updates, pos.ID)
	}
	p.rows[pos.ID] = models.JournalEntryFor(pos)
}

// Inserts returns pending head inserts, oldest first.
func (p *Projector) Inserts() []models.JournalEntry {
	return p.collect(p.inserts)
}

// Updates returns pending in-place updates in first-touched order.
func (p *Projector) Updates() []models.JournalEntry {
	return p.collect(p.updates)
}

func (p *Projector) collect(ids []int64) []models.JournalEntry {
	out := make([]models.JournalEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.rows[id])
	}
	return out
}
