package models

import (
	"fmt"
	"strings"
)

// PageSizes is the enumerated set of page sizes the trade log supports.
var PageSizes = []int{25, 50, 100, 200}

// ValidPageSize reports whether size belongs to PageSizes.
func ValidPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Sort column keys understood by the analytics API.
const (
	ColumnEntryTime       = "entry_time"
	ColumnExitTime        = "exit_time"
	ColumnSymbol          = "symbol"
	ColumnSide            = "side"
	ColumnEntryPrice      = "entry_price"
	ColumnExitPrice       = "exit_price"
	ColumnQuantity        = "quantity"
	ColumnPnL             = "pnl"
	ColumnPnLPercent      = "pnl_percent"
	ColumnDurationMinutes = "duration_minutes"
	ColumnFees            = "fees"
)

// Columns lists the sortable columns in display order.
var Columns = []string{
	ColumnEntryTime, ColumnExitTime, ColumnSymbol, ColumnSide,
	ColumnEntryPrice, ColumnExitPrice, ColumnQuantity,
	ColumnPnL, ColumnPnLPercent, ColumnDurationMinutes, ColumnFees,
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Flip returns the opposite order.
func (o SortOrder) Flip() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ParseSortOrder accepts "asc" or "desc" in any case.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return "", fmt.Errorf("invalid sort order %q", s)
}

// ProfitFilter is the tri-state profitability filter. The zero value shows
// all trades.
type ProfitFilter int

const (
	FilterAll ProfitFilter = iota
	FilterProfitable
	FilterUnprofitable
)

// Param returns the filter_profitable query value and whether it should be
// sent at all.
func (f ProfitFilter) Param() (string, bool) {
	switch f {
	case FilterProfitable:
		return "true", true
	case FilterUnprofitable:
		return "false", true
	}
	return "", false
}

// Next cycles all -> profitable -> unprofitable -> all.
func (f ProfitFilter) Next() ProfitFilter {
	return (f + 1) % 3
}

func (f ProfitFilter) String() string {
	switch f {
	case FilterProfitable:
		return "profitable"
	case FilterUnprofitable:
		return "unprofitable"
	}
	return "all"
}

// MarshalText renders the filter by name.
func (f ProfitFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseProfitFilter maps "", "all", "true" and "false" to a filter.
func ParseProfitFilter(s string) (ProfitFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "true", "profitable":
		return FilterProfitable, nil
	case "false", "unprofitable":
		return FilterUnprofitable, nil
	}
	return FilterAll, fmt.Errorf("invalid profitability filter %q", s)
}

// QueryState is the full view state of the trade log. SearchTerm is applied
// client-side and never reaches the backend.
type QueryState struct {
	Page             int          `json:"page"`
	PageSize         int          `json:"page_size"`
	SortBy           string       `json:"sort_by"`
	SortOrder        SortOrder    `json:"sort_order"`
	FilterProfitable ProfitFilter `json:"filter_profitable"`
	SearchTerm       string       `json:"search_term"`
}

// DefaultQueryState is the state a freshly mounted trade log starts with.
func DefaultQueryState() QueryState {
	return QueryState{
		Page:      1,
		PageSize:  50,
		SortBy:    ColumnEntryTime,
		SortOrder: SortDesc,
	}
}
