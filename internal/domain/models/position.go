package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a Position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "Open"
	StatusClosed PositionStatus = "Closed"
)

// Position is the running aggregate of fills for one symbol's current or past position.
//
// ID doubles as the chronological position of the record: a position created later
// always has a larger ID, so the "top" of the aggregate history is the highest ID.
//
// AvgEntryPrice and AvgExitPrice are only set once the position is Closed, and only
// when the corresponding accumulated quantity is non-zero.
type Position struct {
	ID                int64
	Symbol            string
	Status            PositionStatus
	QuantityRemaining int64
	OpenQuantity      int64
	CloseQuantity     int64
	SumEntryNotional  decimal.Decimal
	SumExitNotional   decimal.Decimal
	AvgEntryPrice     decimal.NullDecimal
	AvgExitPrice      decimal.NullDecimal
	AssetCategory     string
	EntryAt           time.Time
	LastTouchedAt     time.Time
}

// IsOpen reports whether the position still carries quantity.
func (p *Position) IsOpen() bool { return p.Status == StatusOpen }
