package tradelog

import (
	"strings"

	"backtest-tradelog/internal/models"
	"github.com/shopspring/decimal"
)

// Projection is the rendered subset of a fetched page plus its summary.
type Projection struct {
	Rows       []models.Trade  `json:"rows"`
	Total      int             `json:"total_trades"`
	Winners    int             `json:"winners"`
	Losers     int             `json:"losers"`
	TotalPnL   decimal.Decimal `json:"total_pnl"`
	RangeStart int             `json:"range_start"`
	RangeEnd   int             `json:"range_end"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	HasPrev    bool            `json:"has_prev"`
	HasNext    bool            `json:"has_next"`
}

// Project narrows page to the rows matching state.SearchTerm.
//
// Winners, losers and total P&L are taken over the whole fetched page, not
// the search-narrowed rows, so with an active search the tally can disagree
// with the row count. The page range is computed from the state's page and
// page size against the backend's total.
func Project(page *models.TradesPage, state models.QueryState) Projection {
	p := Projection{
		Page:     state.Page,
		TotalPnL: decimal.Zero,
		HasPrev:  state.Page > 1,
	}
	if page == nil {
		return p
	}

	p.Total = page.TotalTrades
	p.TotalPages = page.TotalPages
	p.HasNext = state.Page < page.TotalPages
	p.Rows = Search(page.Trades, state.SearchTerm)

	for _, t := range page.Trades {
		if t.IsWinning() {
			p.Winners++
		} else {
			p.Losers++
		}
		p.TotalPnL = p.TotalPnL.Add(t.PnLValue())
	}

	if p.Total > 0 {
		p.RangeStart = (state.Page-1)*state.PageSize + 1
		p.RangeEnd = min(state.Page*state.PageSize, p.Total)
	}
	return p
}

// Search keeps trades whose symbol, side or raw entry_time contains term,
// ignoring case. An empty term returns trades itself.
func Search(trades []models.Trade, term string) []models.Trade {
	if term == "" {
		return trades
	}
	needle := strings.ToLower(term)
	matched := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if strings.Contains(strings.ToLower(t.Symbol), needle) ||
			strings.Contains(strings.ToLower(string(t.Side)), needle) ||
			strings.Contains(strings.ToLower(t.EntryTime), needle) {
			matched = append(matched, t)
		}
	}
	return matched
}
