package dto

import (
	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/shopspring/decimal"
)

// PositionResponse is one aggregate as returned by GET /api/v1/positions.
//
// Averages are null until the position is closed.
type PositionResponse struct {
	ID                int64   `json:"id" example:"12"`
	Symbol            string  `json:"symbol" example:"AAPL"`
	Status            string  `json:"status" example:"Closed"`
	QuantityRemaining int64   `json:"quantity_remaining" example:"0"`
	OpenQuantity      int64   `json:"open_quantity" example:"100"`
	CloseQuantity     int64   `json:"close_quantity" example:"-100"`
	SumEntryNotional  string  `json:"sum_entry_notional" example:"15000"`
	SumExitNotional   string  `json:"sum_exit_notional" example:"-15500"`
	AvgEntryPrice     *string `json:"avg_entry_price" example:"150"`
	AvgExitPrice      *string `json:"avg_exit_price" example:"155"`
	AssetCategory     string  `json:"asset_category" example:"STK"`
	EntryDate         string  `json:"entry_date" example:"2024-01-10"`
	EntryTime         string  `json:"entry_time" example:"09:30:00"`
	LastTradeDate     string  `json:"last_trade_date" example:"2024-01-12"`
	LastTradeTime     string  `json:"last_trade_time" example:"15:59:01"`
}

// JournalResponse is one journal row as returned by GET /api/v1/journal.
type JournalResponse struct {
	EntryDate     string  `json:"entry_date" example:"2024-01-10"`
	EntryTime     string  `json:"entry_time" example:"09:30:00"`
	Status        string  `json:"status" example:"Open"`
	Symbol        string  `json:"symbol" example:"AAPL"`
	OpenQuantity  int64   `json:"open_quantity" example:"100"`
	AvgEntryPrice *string `json:"avg_entry_price"`
	AvgExitPrice  *string `json:"avg_exit_price"`
}

// LedgerEntryResponse is one ledger row as returned by GET /api/v1/ledger.
type LedgerEntryResponse struct {
	Seq           int64  `json:"seq" example:"42"`
	Symbol        string `json:"symbol" example:"AAPL"`
	Quantity      int64  `json:"quantity" example:"-100"`
	Price         string `json:"price" example:"155.00"`
	OpenClose     string `json:"open_close" example:"C"`
	AssetCategory string `json:"asset_category" example:"STK"`
	BuySell       string `json:"buy_sell" example:"SELL"`
	Date          string `json:"date" example:"2024-01-12"`
	Time          string `json:"time" example:"15:59:01"`
}

// RunResponse summarizes one sync + reconcile run triggered through POST /api/v1/sync.
type RunResponse struct {
	RunID             string `json:"run_id" example:"2b1f4c1e-8d7a-4d53-9a4c-0c3e6d1f2a90"`
	Fetched           int    `json:"fetched" example:"14"`
	Appended          int    `json:"appended" example:"3"`
	HighWaterMark     string `json:"high_water_mark" example:"2024-01-12T15:59:01"`
	FillsApplied      int    `json:"fills_applied" example:"3"`
	PositionsOpened   int    `json:"positions_opened" example:"1"`
	PositionsClosed   int    `json:"positions_closed" example:"1"`
	OrphanCloses      int    `json:"orphan_closes" example:"0"`
	StaleOpens        int    `json:"stale_opens" example:"0"`
	ReconciledThrough int64  `json:"reconciled_through" example:"42"`
}

// NewPositionResponse maps a domain position to its API shape.
func NewPositionResponse(p models.Position) PositionResponse {
	return PositionResponse{
		ID:                p.ID,
		Symbol:            p.Symbol,
		Status:            string(p.Status),
		QuantityRemaining: p.QuantityRemaining,
		OpenQuantity:      p.OpenQuantity,
		CloseQuantity:     p.CloseQuantity,
		SumEntryNotional:  p.SumEntryNotional.String(),
		SumExitNotional:   p.SumExitNotional.String(),
		AvgEntryPrice:     nullString(p.AvgEntryPrice),
		AvgExitPrice:      nullString(p.AvgExitPrice),
		AssetCategory:     p.AssetCategory,
		EntryDate:         models.FormatDate(p.EntryAt),
		EntryTime:         models.FormatClock(p.EntryAt),
		LastTradeDate:     models.FormatDate(p.LastTouchedAt),
		LastTradeTime:     models.FormatClock(p.LastTouchedAt),
	}
}

// NewJournalResponse maps a journal row to its API shape.
func NewJournalResponse(j models.JournalEntry) JournalResponse {
	return JournalResponse{
		EntryDate:     j.EntryDate,
		EntryTime:     j.EntryTime,
		Status:        string(j.Status),
		Symbol:        j.Symbol,
		OpenQuantity:  j.OpenQuantity,
		AvgEntryPrice: nullString(j.AvgEntryPrice),
		AvgExitPrice:  nullString(j.AvgExitPrice),
	}
}

// NewLedgerEntryResponse maps a ledger entry to its API shape.
func NewLedgerEntryResponse(e models.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		Seq:           e.Seq,
		Symbol:        e.Symbol,
		Quantity:      e.Quantity,
		Price:         e.Price.String(),
		OpenClose:     string(e.Side),
		AssetCategory: e.AssetCategory,
		BuySell:       e.BuySell,
		Date:          e.TradeDate(),
		Time:          e.TradeTime(),
	}
}

func nullString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}
