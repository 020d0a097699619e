package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of the opening leg of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeID is a backend trade identifier. The backend sends either a number or
// a string; both are kept as their literal text.
type TradeID string

// UnmarshalJSON accepts a JSON number, string or null.
func (id *TradeID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TradeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("trade id must be a number or string: %w", err)
	}
	*id = TradeID(n.String())
	return nil
}

// Trade is one closed round-trip position as reported by the analytics API.
// Decimal fields are NullDecimal because the backend may omit any of them.
type Trade struct {
	ID              TradeID             `json:"id,omitempty"`
	EntryTime       string              `json:"entry_time"`
	ExitTime        string              `json:"exit_time"`
	Symbol          string              `json:"symbol"`
	Side            Side                `json:"side"`
	EntryPrice      decimal.NullDecimal `json:"entry_price"`
	ExitPrice       decimal.NullDecimal `json:"exit_price"`
	Quantity        decimal.NullDecimal `json:"quantity"`
	PnL             decimal.NullDecimal `json:"pnl"`
	PnLPercent      decimal.NullDecimal `json:"pnl_percent"`
	DurationMinutes decimal.NullDecimal `json:"duration_minutes"`
	Fees            decimal.NullDecimal `json:"fees"`
}

// PnLValue returns the realized P&L, treating an absent value as zero.
func (t Trade) PnLValue() decimal.Decimal {
	if !t.PnL.Valid {
		return decimal.Zero
	}
	return t.PnL.Decimal
}

// IsWinning reports pnl > 0. Zero and absent P&L are losing.
func (t Trade) IsWinning() bool {
	return t.PnLValue().IsPositive()
}

// Key identifies the trade within a page, falling back to its position when
// the backend sent no id.
func (t Trade) Key(index int) string {
	if t.ID != "" {
		return string(t.ID)
	}
	return "#" + strconv.Itoa(index)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the ISO-8601 timestamps the backend emits, with or
// without a zone offset.
func ParseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
