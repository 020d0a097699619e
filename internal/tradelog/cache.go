package tradelog

import (
	"fmt"
	"time"

	"backtest-tradelog/internal/analytics"
	"backtest-tradelog/internal/models"
)

// QueryKey is the tuple that uniquely determines a backend request.
type QueryKey struct {
	BacktestID string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  models.SortOrder
	Filter     models.ProfitFilter
}

func keyOf(backtestID string, s models.QueryState) QueryKey {
	return QueryKey{
		BacktestID: backtestID,
		Page:       s.Page,
		PageSize:   s.PageSize,
		SortBy:     s.SortBy,
		SortOrder:  s.SortOrder,
		Filter:     s.FilterProfitable,
	}
}

// Query converts the key to gateway parameters.
func (k QueryKey) Query() analytics.TradesQuery {
	return analytics.TradesQuery{
		BacktestID: k.BacktestID,
		Page:       k.Page,
		PageSize:   k.PageSize,
		SortBy:     k.SortBy,
		SortOrder:  k.SortOrder,
		Filter:     k.Filter,
	}
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s/p%d/n%d/%s:%s/%s", k.BacktestID, k.Page, k.PageSize, k.SortBy, k.SortOrder, k.Filter)
}

// Status is the lifecycle of one cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// MarshalText renders the status by name in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CacheEntry is the fetch result held for one query key.
type CacheEntry struct {
	Status    Status
	Page      *models.TradesPage
	Err       error
	Seq       uint64 // newest request issued for this key
	FetchedAt time.Time
}
