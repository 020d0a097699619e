package tui

import (
	"backtest-tradelog/internal/models"
	"github.com/shopspring/decimal"
)

const placeholder = "-"

func num(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return placeholder
	}
	return d.Decimal.StringFixed(places)
}

func timestamp(raw string) string {
	if raw == "" {
		return placeholder
	}
	ts, err := models.ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return ts.Format("2006-01-02 15:04")
}

func text(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// rowValues renders t in the order of columns.
func rowValues(t models.Trade) []string {
	return []string{
		timestamp(t.EntryTime),
		timestamp(t.ExitTime),
		text(t.Symbol),
		text(string(t.Side)),
		num(t.EntryPrice, 2),
		num(t.ExitPrice, 2),
		num(t.Quantity, 4),
		num(t.PnL, 2),
		num(t.PnLPercent, 2),
		num(t.DurationMinutes, 0),
		num(t.Fees, 2),
	}
}
