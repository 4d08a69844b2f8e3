package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemaKind identifies which upstream report shape a raw record came from.
//
// Values:
//   - SchemaActivity: activity statement rows (<Trades><Trade .../>), price in "tradePrice",
//     side in "openCloseIndicator".
//   - SchemaConfirmation: trade confirmation rows (<TradeConfirms><TradeConfirm .../>), price in
//     "price", side encoded as the first token of the semicolon-delimited "code".
type SchemaKind int

const (
	SchemaActivity SchemaKind = iota
	SchemaConfirmation
)

func (k SchemaKind) String() string {
	switch k {
	case SchemaActivity:
		return "activity"
	case SchemaConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Side tells whether a fill opens (or adds to) a position or closes it.
type Side string

const (
	SideOpen  Side = "O"
	SideClose Side = "C"
)

// ParseSide maps the upstream marker token to a Side.
// Only "O" and "C" are recognized.
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideOpen:
		return SideOpen, true
	case SideClose:
		return SideClose, true
	default:
		return "", false
	}
}

// TimestampLayout is the persisted, second-resolution form of every trade timestamp
// (e.g. "2024-01-10T09:00:00"). It is also the high-water-mark format.
const TimestampLayout = "2006-01-02T15:04:05"

// Unknown is rendered in place of a date or time that could not be parsed.
const Unknown = "N/A"

// Execution is one normalized fill.
//
// Fields:
//   - Symbol: ticker as reported upstream (e.g. "AAPL").
//   - Quantity: signed, never zero; the sign encodes direction.
//   - Price: per-unit fill price.
//   - TradedAt: fill time at second precision, UTC. The zero value means the upstream
//     timestamp was malformed.
//   - Side: Open or Close marker.
//   - AssetCategory: e.g. "STK", "OPT".
//   - BuySell: "BUY" or "SELL" as reported.
type Execution struct {
	Symbol        string
	Quantity      int64
	Price         decimal.Decimal
	TradedAt      time.Time
	Side          Side
	AssetCategory string
	BuySell       string
}

// HasTimestamp reports whether the upstream timestamp was parsed.
func (e Execution) HasTimestamp() bool { return !e.TradedAt.IsZero() }

// Notional returns quantity × price, keeping the sign of the quantity.
func (e Execution) Notional() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(e.Quantity))
}

// TradeDate returns "YYYY-MM-DD" or Unknown.
func (e Execution) TradeDate() string { return FormatDate(e.TradedAt) }

// TradeTime returns "HH:MM:SS" or Unknown.
func (e Execution) TradeTime() string { return FormatClock(e.TradedAt) }

// FormatDate renders the date part of t, or Unknown for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return Unknown
	}
	return t.Format("2006-01-02")
}

// FormatClock renders the time-of-day part of t, or Unknown for the zero time.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return Unknown
	}
	return t.Format("15:04:05")
}

// LedgerEntry is an Execution together with its insertion sequence in the ledger.
// Sequences grow with chronological order: within one appended batch the oldest
// execution receives the lowest sequence.
type LedgerEntry struct {
	Seq int64
	Execution
}
