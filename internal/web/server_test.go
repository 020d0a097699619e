package web

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"backtest-tradelog/internal/analytics"
	"backtest-tradelog/internal/models"
	"backtest-tradelog/internal/tradelog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingFetcher serves canned pages and remembers every query it saw.
type recordingFetcher struct {
	mu      sync.Mutex
	queries []analytics.TradesQuery
	page    *models.TradesPage
	err     error
}

func (f *recordingFetcher) FetchTrades(ctx context.Context, q analytics.TradesQuery) (*models.TradesPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	p.Page = q.Page
	return &p, nil
}

func (f *recordingFetcher) last() analytics.TradesQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *recordingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func samplePage() *models.TradesPage {
	num := func(s string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(s)) }
	return &models.TradesPage{
		Success: true,
		Trades: []models.Trade{
			{ID: "1", EntryTime: "2024-03-01T09:30:00Z", ExitTime: "2024-03-01T10:00:00Z", Symbol: "BTCUSDT", Side: models.SideBuy,
				EntryPrice: num("100"), ExitPrice: num("110"), Quantity: num("1"), PnL: num("10"), DurationMinutes: num("30")},
			{ID: "2", EntryTime: "2024-03-02T09:30:00Z", Symbol: "ETHUSDT", Side: models.SideSell, PnL: num("-2.5")},
		},
		TotalTrades: 120,
		TotalPages:  3,
		PageSize:    50,
	}
}

func setupServer(t *testing.T, fetcher *recordingFetcher, backtestID string) (*Server, *tradelog.Controller) {
	t.Helper()
	ctrl := tradelog.NewController(fetcher, zap.NewNop(), tradelog.Options{BacktestID: backtestID})
	s, err := NewServer(0, ctrl, zap.NewNop())
	require.NoError(t, err)
	return s, ctrl
}

func do(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndex(t *testing.T) {
	t.Run("RendersTable", func(t *testing.T) {
		fetcher := &recordingFetcher{page: samplePage()}
		s, _ := setupServer(t, fetcher, "42")

		w := do(s, "/")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "BTCUSDT")
		assert.Contains(t, body, "2024-03-01 09:30")
		assert.Contains(t, body, "Showing 2 of 120 trades")
		assert.Contains(t, body, "Winners: 1")
		assert.Contains(t, body, "Losers: 1")
		assert.Contains(t, body, `<span class="disabled">‹ Prev</span>`)
		assert.Contains(t, body, `href="/page?n=2"`)
		assert.Contains(t, body, "Entry Time ▼")
		assert.Contains(t, body, `<option value="all" selected>All trades</option>`)
		assert.Contains(t, body, `<option value="false">Losers</option>`)
		assert.Equal(t, 1, fetcher.count())

		// a second render reuses the cached page
		do(s, "/")
		assert.Equal(t, 1, fetcher.count())
	})

	t.Run("MissingFieldsShowPlaceholder", func(t *testing.T) {
		s, _ := setupServer(t, &recordingFetcher{page: samplePage()}, "42")
		body := do(s, "/").Body.String()
		assert.Contains(t, body, "<td>-</td>")
		assert.NotContains(t, body, "undefined")
	})

	t.Run("Disabled", func(t *testing.T) {
		fetcher := &recordingFetcher{page: samplePage()}
		s, _ := setupServer(t, fetcher, "")
		body := do(s, "/").Body.String()
		assert.Contains(t, body, "Enter a backtest id")
		assert.Zero(t, fetcher.count())
	})

	t.Run("ErrorWithRetry", func(t *testing.T) {
		fetcher := &recordingFetcher{err: &analytics.HTTPError{StatusCode: 500, Status: "500 Internal Server Error"}}
		s, _ := setupServer(t, fetcher, "42")

		body := do(s, "/").Body.String()
		assert.Contains(t, body, "Internal Server Error")
		assert.Contains(t, body, `href="/retry"`)

		// rendering again does not retry on its own
		do(s, "/")
		assert.Equal(t, 1, fetcher.count())

		fetcher.mu.Lock()
		fetcher.err, fetcher.page = nil, samplePage()
		fetcher.mu.Unlock()
		w := do(s, "/retry")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, 2, fetcher.count())
		assert.NotContains(t, do(s, "/").Body.String(), "Failed to load trades")
	})
}

func TestIntents(t *testing.T) {
	fetcher := &recordingFetcher{page: samplePage()}
	s, ctrl := setupServer(t, fetcher, "42")
	do(s, "/")

	w := do(s, "/page?n=2")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, 2, fetcher.last().Page)

	do(s, "/sort?column=pnl")
	assert.Equal(t, "pnl", fetcher.last().SortBy)
	assert.Equal(t, models.SortDesc, fetcher.last().SortOrder)
	assert.Equal(t, 1, fetcher.last().Page)

	do(s, "/sort?column=pnl")
	assert.Equal(t, models.SortAsc, fetcher.last().SortOrder)

	do(s, "/filter?profitable=false")
	assert.Equal(t, models.FilterUnprofitable, fetcher.last().Filter)

	do(s, "/page-size?size=200")
	assert.Equal(t, 200, fetcher.last().PageSize)

	before := fetcher.count()
	do(s, "/search?q=btc")
	assert.Equal(t, before, fetcher.count(), "search alone never fetches")
	assert.Equal(t, "btc", ctrl.State().SearchTerm)

	do(s, "/backtest?id=77")
	assert.Equal(t, "77", fetcher.last().BacktestID)

	for _, bad := range []string{"/sort?column=drop", "/filter?profitable=maybe", "/page?n=x", "/page-size?size=30"} {
		assert.Equal(t, http.StatusBadRequest, do(s, bad).Code, bad)
	}
}

func TestExport(t *testing.T) {
	t.Run("LoadedPage", func(t *testing.T) {
		s, ctrl := setupServer(t, &recordingFetcher{page: samplePage()}, "42")
		do(s, "/")
		ctrl.SetSearchTerm("eth")

		w := do(s, "/export.csv")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "trades_backtest_42.csv")

		records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 3, "export ignores the search term")
		assert.Equal(t, "", records[2][4])
	})

	t.Run("LinkSurvivesEmptySearch", func(t *testing.T) {
		s, _ := setupServer(t, &recordingFetcher{page: samplePage()}, "42")
		assert.Contains(t, do(s, "/").Body.String(), `href="/export.csv"`)

		do(s, "/search?q=zzz")
		body := do(s, "/").Body.String()
		assert.Contains(t, body, "No trades.")
		assert.Contains(t, body, `href="/export.csv"`)
		assert.Equal(t, http.StatusOK, do(s, "/export.csv").Code)
	})

	t.Run("NoLinkWithoutTrades", func(t *testing.T) {
		s, _ := setupServer(t, &recordingFetcher{page: &models.TradesPage{Success: true}}, "42")
		assert.NotContains(t, do(s, "/").Body.String(), `href="/export.csv"`)
		assert.Equal(t, http.StatusNoContent, do(s, "/export.csv").Code)
	})

	t.Run("NothingLoaded", func(t *testing.T) {
		s, _ := setupServer(t, &recordingFetcher{page: samplePage()}, "")
		w := do(s, "/export.csv")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestViewJSON(t *testing.T) {
	s, _ := setupServer(t, &recordingFetcher{page: samplePage()}, "42")
	do(s, "/")

	w := do(s, "/api/view")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		BacktestID string `json:"backtest_id"`
		Status     string `json:"status"`
		State      struct {
			Filter string `json:"filter_profitable"`
		} `json:"state"`
		View struct {
			Winners int `json:"winners"`
			Losers  int `json:"losers"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "42", got.BacktestID)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "all", got.State.Filter)
	assert.Equal(t, 1, got.View.Winners)
	assert.Equal(t, 1, got.View.Losers)
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t, &recordingFetcher{page: samplePage()}, "")
	w := do(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK\n", w.Body.String())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "-", formatDecimal(decimal.NullDecimal{}, 2))
	assert.Equal(t, "1.50", formatDecimal(decimal.NewNullDecimal(decimal.NewFromFloat(1.5)), 2))
	assert.Equal(t, "-", formatTime(""))
	assert.Equal(t, "soon", formatTime("soon"))
	assert.Equal(t, "2024-03-01 09:30", formatTime("2024-03-01T09:30:00Z"))
}
