package ingestion

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/flex"
	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/metrics"
)

// Skip reasons reported by the normalizer (also used as metric labels).
const (
	SkipExcluded = "excluded_symbol"
	SkipNoSymbol = "missing_symbol"
	SkipQuantity = "invalid_quantity"
	SkipPrice    = "invalid_price"
	SkipSide     = "invalid_side"
)

const (
	upstreamLayout  = "20060102150405"
	dateTimeDivider = ";"
)

// Normalizer turns raw upstream rows of either schema into canonical Executions.
// It never fails a batch: bad rows are logged and omitted.
type Normalizer struct {
	excluded map[string]struct{}
}

// NewNormalizer builds a Normalizer that drops the given symbols (e.g. "USD.SEK").
func NewNormalizer(excludedSymbols []string) *Normalizer {
	ex := make(map[string]struct{}, len(excludedSymbols))
	for _, s := range excludedSymbols {
		ex[strings.TrimSpace(s)] = struct{}{}
	}
	return &Normalizer{excluded: ex}
}

// Normalize converts one raw row. The second return value is false when the row must be skipped.
//
// Schema dispatch:
//   - Confirmation: price from "price", side from the first ';' token of "code".
//   - Activity: price from "tradePrice", side from "openCloseIndicator".
//
// A malformed timestamp does not skip the row; it yields a zero TradedAt (rendered as "N/A").
func (n *Normalizer) Normalize(ctx context.Context, kind models.SchemaKind, rec flex.Record) (models.Execution, bool) {
	return n.normalize(logger.Ctx(ctx, "normalizer"), kind, rec)
}

func (n *Normalizer) normalize(log zerolog.Logger, kind models.SchemaKind, rec flex.Record) (models.Execution, bool) {
	symbol := strings.TrimSpace(rec.Symbol)
	if symbol == "" {
		skip(log, kind, rec, SkipNoSymbol)
		return models.Execution{}, false
	}
	if _, ok := n.excluded[symbol]; ok {
		skip(log, kind, rec, SkipExcluded)
		return models.Execution{}, false
	}

	qty, ok := parseQuantity(rec.Quantity)
	if !ok || qty == 0 {
		skip(log, kind, rec, SkipQuantity)
		return models.Execution{}, false
	}

	rawPrice, rawSide := rec.TradePrice, rec.OpenCloseIndicator
	if kind == models.SchemaConfirmation {
		rawPrice, rawSide = rec.Price, rec.Code
	}

	price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
	if err != nil || price.IsNegative() {
		skip(log, kind, rec, SkipPrice)
		return models.Execution{}, false
	}

	side, ok := models.ParseSide(firstToken(rawSide))
	if !ok {
		skip(log, kind, rec, SkipSide)
		return models.Execution{}, false
	}

	tradedAt, err := ParseTradeDateTime(rec.DateTime)
	if err != nil {
		log.Warn().Str("schema", kind.String()).Str("symbol", symbol).Str("date_time", rec.DateTime).Err(err).
			Msg("malformed trade timestamp, keeping record with unknown date/time")
	}

	exec := models.Execution{
		Symbol:        symbol,
		Quantity:      qty,
		Price:         price,
		TradedAt:      tradedAt,
		Side:          side,
		AssetCategory: strings.TrimSpace(rec.AssetCategory),
		BuySell:       strings.TrimSpace(rec.BuySell),
	}
	log.Debug().Str("schema", kind.String()).Str("symbol", exec.Symbol).Int64("quantity", exec.Quantity).
		Str("price", exec.Price.String()).Str("side", string(exec.Side)).Str("date", exec.TradeDate()).
		Str("time", exec.TradeTime()).Msg("trade normalized")
	return exec, true
}

// NormalizeBatch normalizes rows in upstream order, dropping skipped ones.
func (n *Normalizer) NormalizeBatch(ctx context.Context, kind models.SchemaKind, recs []flex.Record) []models.Execution {
	log := logger.Ctx(ctx, "normalizer")
	out := make([]models.Execution, 0, len(recs))
	for _, rec := range recs {
		if exec, ok := n.normalize(log, kind, rec); ok {
			out = append(out, exec)
		}
	}
	return out
}

func skip(log zerolog.Logger, kind models.SchemaKind, rec flex.Record, reason string) {
	metrics.ExecutionsSkipped.WithLabelValues(reason).Inc()
	log.Info().Str("schema", kind.String()).Str("symbol", rec.Symbol).Str("quantity", rec.Quantity).
		Str("reason", reason).Msg("record skipped")
}

// ParseTradeDateTime parses the upstream "YYYYMMDD;HHMMSS" token as UTC.
func ParseTradeDateTime(s string) (time.Time, error) {
	datePart, timePart, found := strings.Cut(strings.TrimSpace(s), dateTimeDivider)
	if !found {
		return time.Time{}, &TimestampError{Value: s, Reason: "missing ';' between date and time"}
	}
	if len(datePart) != 8 || len(timePart) < 6 {
		return time.Time{}, &TimestampError{Value: s, Reason: "expected YYYYMMDD;HHMMSS"}
	}
	t, err := time.ParseInLocation(upstreamLayout, datePart+timePart[:6], time.UTC)
	if err != nil {
		return time.Time{}, &TimestampError{Value: s, Reason: err.Error()}
	}
	return t, nil
}

// TimestampError describes an unparseable upstream timestamp.
type TimestampError struct {
	Value  string
	Reason string
}

func (e *TimestampError) Error() string {
	return "invalid trade timestamp " + strconv.Quote(e.Value) + ": " + e.Reason
}

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// parseQuantity accepts integers and truncates decimal quantities toward zero.
// Values outside the int64 range are rejected.
func parseQuantity(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.Truncate(0).Abs().GreaterThan(maxQuantity) {
		return 0, false
	}
	return d.IntPart(), true
}

func firstToken(s string) string {
	tok, _, _ := strings.Cut(s, ";")
	return strings.TrimSpace(tok)
}
