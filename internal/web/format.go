package web

import (
	"html/template"

	"backtest-tradelog/internal/models"
	"github.com/shopspring/decimal"
)

const placeholder = "-"

var columnLabels = map[string]string{
	models.ColumnEntryTime:       "Entry Time",
	models.ColumnExitTime:        "Exit Time",
	models.ColumnSymbol:          "Symbol",
	models.ColumnSide:            "Side",
	models.ColumnEntryPrice:      "Entry Price",
	models.ColumnExitPrice:       "Exit Price",
	models.ColumnQuantity:        "Quantity",
	models.ColumnPnL:             "P&L",
	models.ColumnPnLPercent:      "P&L %",
	models.ColumnDurationMinutes: "Duration (min)",
	models.ColumnFees:            "Fees",
}

var filterLabels = map[models.ProfitFilter]string{
	models.FilterAll:          "All trades",
	models.FilterProfitable:   "Winners",
	models.FilterUnprofitable: "Losers",
}

// formatDecimal renders d with fixed places, or the placeholder when absent.
func formatDecimal(d decimal.NullDecimal, places int) string {
	if !d.Valid {
		return placeholder
	}
	return d.Decimal.StringFixed(int32(places))
}

// formatTime renders an ISO timestamp for display. Unparseable values are
// shown as sent.
func formatTime(raw string) string {
	if raw == "" {
		return placeholder
	}
	ts, err := models.ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return ts.Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func pnlClass(t models.Trade) string {
	if t.IsWinning() {
		return "win"
	}
	return "loss"
}

var funcs = template.FuncMap{
	"dec":      formatDecimal,
	"ts":       formatTime,
	"orDash":   orDash,
	"pnlClass": pnlClass,
	"add":      func(a, b int) int { return a + b },
}

type columnView struct {
	Key   string
	Label string
	Mark  string
}

func columnViews(state models.QueryState) []columnView {
	cols := make([]columnView, 0, len(models.Columns))
	for _, key := range models.Columns {
		cv := columnView{Key: key, Label: columnLabels[key]}
		if key == state.SortBy {
			if state.SortOrder == models.SortAsc {
				cv.Mark = "▲"
			} else {
				cv.Mark = "▼"
			}
		}
		cols = append(cols, cv)
	}
	return cols
}
