package tradelog

import (
	"testing"

	"backtest-tradelog/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenTrades has six winners and four losers, including a zero and an absent pnl.
func tenTrades() *models.TradesPage {
	trades := []models.Trade{
		{Symbol: "BTCUSDT", Side: models.SideBuy, EntryTime: "2024-01-01T09:00:00Z", PnL: pnl(10)},
		{Symbol: "BTCUSDT", Side: models.SideSell, EntryTime: "2024-01-02T09:00:00Z", PnL: pnl(5)},
		{Symbol: "ETHUSDT", Side: models.SideBuy, EntryTime: "2024-01-03T09:00:00Z", PnL: pnl(1)},
		{Symbol: "ETHUSDT", Side: models.SideBuy, EntryTime: "2024-01-04T09:00:00Z", PnL: pnl(0.5)},
		{Symbol: "SOLUSDT", Side: models.SideSell, EntryTime: "2024-02-01T09:00:00Z", PnL: pnl(2)},
		{Symbol: "SOLUSDT", Side: models.SideBuy, EntryTime: "2024-02-02T09:00:00Z", PnL: pnl(3)},
		{Symbol: "ADAUSDT", Side: models.SideBuy, EntryTime: "2024-02-03T09:00:00Z", PnL: pnl(-4)},
		{Symbol: "ADAUSDT", Side: models.SideSell, EntryTime: "2024-02-04T09:00:00Z", PnL: pnl(-1)},
		{Symbol: "XRPUSDT", Side: models.SideBuy, EntryTime: "2024-03-01T09:00:00Z", PnL: pnl(0)},
		{Symbol: "XRPUSDT", Side: models.SideSell, EntryTime: "2024-03-02T09:00:00Z"},
	}
	return &models.TradesPage{Success: true, Trades: trades, TotalTrades: 10, TotalPages: 1}
}

func stateWith(term string) models.QueryState {
	s := models.DefaultQueryState()
	s.SearchTerm = term
	return s
}

func TestProject_TallyIgnoresSearch(t *testing.T) {
	page := tenTrades()
	for _, term := range []string{"", "btc", "sell", "2024-02", "no-such-symbol"} {
		t.Run("term="+term, func(t *testing.T) {
			p := Project(page, stateWith(term))
			assert.Equal(t, 6, p.Winners)
			assert.Equal(t, 4, p.Losers)
			assert.True(t, p.TotalPnL.Equal(decimal.NewFromFloat(16.5)), p.TotalPnL.String())
		})
	}
}

func TestProject_Search(t *testing.T) {
	page := tenTrades()

	testCases := []struct {
		term string
		want int
	}{
		{"btc", 2},
		{"BTC", 2},
		{"SeLl", 4},
		{"2024-02", 4},
		{"T09:00", 10},
		{"usdt", 10},
		{"zzz", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.term, func(t *testing.T) {
			assert.Len(t, Project(page, stateWith(tc.term)).Rows, tc.want)
		})
	}

	t.Run("EmptyTermKeepsSlice", func(t *testing.T) {
		rows := Project(page, stateWith("")).Rows
		require.Len(t, rows, 10)
		assert.Same(t, &page.Trades[0], &rows[0])
	})

	t.Run("FormattedDateDoesNotMatch", func(t *testing.T) {
		assert.Empty(t, Project(page, stateWith("Jan 1")).Rows)
	})
}

func TestProject_Range(t *testing.T) {
	page := &models.TradesPage{TotalTrades: 120, TotalPages: 3}

	s := models.DefaultQueryState()
	p := Project(page, s)
	assert.Equal(t, 1, p.RangeStart)
	assert.Equal(t, 50, p.RangeEnd)
	assert.False(t, p.HasPrev)
	assert.True(t, p.HasNext)

	s.Page = 3
	p = Project(page, s)
	assert.Equal(t, 101, p.RangeStart)
	assert.Equal(t, 120, p.RangeEnd)
	assert.True(t, p.HasPrev)
	assert.False(t, p.HasNext)

	p = Project(&models.TradesPage{}, models.DefaultQueryState())
	assert.Equal(t, 0, p.RangeStart)
	assert.Equal(t, 0, p.RangeEnd)
	assert.False(t, p.HasNext)
}

func TestProject_NilPage(t *testing.T) {
	p := Project(nil, models.DefaultQueryState())
	assert.Nil(t, p.Rows)
	assert.Zero(t, p.Winners)
	assert.Zero(t, p.Losers)
	assert.True(t, p.TotalPnL.IsZero())
}
