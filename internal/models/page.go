package models

// TradesPage is one response of the trades endpoint.
type TradesPage struct {
	Success          bool      `json:"success"`
	Trades           []Trade   `json:"trades"`
	TotalTrades      int       `json:"total_trades"`
	Page             int       `json:"page"`
	PageSize         int       `json:"page_size"`
	TotalPages       int       `json:"total_pages"`
	SortBy           string    `json:"sort_by"`
	SortOrder        SortOrder `json:"sort_order"`
	FilterProfitable *bool     `json:"filter_profitable,omitempty"`
}
