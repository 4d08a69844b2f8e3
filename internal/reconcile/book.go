package reconcile

import (
	"sort"

	"github.com/guttosm/flexledger/internal/domain/models"
)

// Book is the in-memory snapshot of every position aggregate during one pass.
//
// Positions are kept in creation order (ascending ID); the last one is the "top",
// i.e. the most recently created aggregate. The open index maps a symbol to its single
// live Open aggregate, which keeps the at-most-one-open-per-symbol invariant structural.
type Book struct {
	positions []*models.Position
	open      map[string]*models.Position
	nextID    int64

	created []*models.Position
	touched map[int64]*models.Position
}

// NewBook loads a stored snapshot. Input order does not matter.
//
// If the snapshot holds several Open aggregates for one symbol, the most recently
// created one is indexed and the others are left untouched as history.
func NewBook(snapshot []models.Position) *Book {
	b := &Book{
		positions: make([]*models.Position, 0, len(snapshot)),
		open:      make(map[string]*models.Position),
		nextID:    1,
		touched:   make(map[int64]*models.Position),
	}
	for i := range snapshot {
		p := snapshot[i]
		b.positions = append(b.positions, &p)
	}
	sort.SliceStable(b.positions, func(i, j int) bool { return b.positions[i].ID < b.positions[j].ID })

	for i := len(b.positions) - 1; i >= 0; i-- {
		p := b.positions[i]
		if p.ID >= b.nextID {
			b.nextID = p.ID + 1
		}
		if _, seen := b.open[p.Symbol]; !seen && p.IsOpen() {
			b.open[p.Symbol] = p
		}
	}
	return b
}

// OpenFor returns the live Open aggregate for symbol, or nil.
func (b *Book) OpenFor(symbol string) *models.Position {
	return b.open[symbol]
}

// Top returns the most recently created aggregate, or nil for an empty book.
func (b *Book) Top() *models.Position {
	if len(b.positions) == 0 {
		return nil
	}
	return b.positions[len(b.positions)-1]
}

// Create assigns the next ID to p, places it on top and indexes it as the symbol's open aggregate.
func (b *Book) Create(p models.Position) *models.Position {
	p.ID = b.nextID
	b.nextID++
	ptr := &p
	b.positions = append(b.positions, ptr)
	b.created = append(b.created, ptr)
	if ptr.IsOpen() {
		b.open[ptr.Symbol] = ptr
	}
	return ptr
}

// Touch records that p was mutated in place and drops it from the open index once closed.
func (b *Book) Touch(p *models.Position) {
	if !p.IsOpen() && b.open[p.Symbol] == p {
		delete(b.open, p.Symbol)
	}
	if !b.isCreated(p) {
		b.touched[p.ID] = p
	}
}

// Positions returns a copy of every aggregate, newest first.
func (b *Book) Positions() []models.Position {
	out := make([]models.Position, 0, len(b.positions))
	for i := len(b.positions) - 1; i >= 0; i-- {
		out = append(out, *b.positions[i])
	}
	return out
}

// Created returns the aggregates created since the book was loaded, oldest first, in final state.
func (b *Book) Created() []models.Position {
	out := make([]models.Position, 0, len(b.created))
	for _, p := range b.created {
		out = append(out, *p)
	}
	return out
}

// Updated returns the pre-existing aggregates mutated since the book was loaded, by ID.
func (b *Book) Updated() []models.Position {
	out := make([]models.Position, 0, len(b.touched))
	for _, p := range b.touched {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Book) isCreated(p *models.Position) bool {
	return len(b.created) > 0 && p.ID >= b.created[0].ID
}
