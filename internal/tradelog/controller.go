package tradelog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backtest-tradelog/internal/analytics"
	"backtest-tradelog/internal/models"
	"go.uber.org/zap"
)

// ErrInvalidPageSize is returned by SetPageSize for sizes outside models.PageSizes.
var ErrInvalidPageSize = errors.New("invalid page size")

// Request is a fetch the controller wants the caller to run, either through
// Do or by calling Fetch and handing the result to Resolve.
type Request struct {
	Key QueryKey
	Seq uint64
}

// Options configures a Controller.
type Options struct {
	BacktestID string
	PageSize   int           // zero keeps the default
	Timeout    time.Duration // per-fetch bound applied by Do and Fetch
}

// Controller owns the trade log query state, the per-key fetch cache and the
// rules tying them together. Mutations return the Request to run when the
// query key changed; search-only changes never produce one.
type Controller struct {
	mu sync.Mutex

	fetcher analytics.TradesFetcher
	logger  *zap.Logger
	timeout time.Duration

	backtestID string
	state      models.QueryState
	cache      map[QueryKey]*CacheEntry
	seq        uint64

	// last page applied by Resolve and the key it was fetched for
	last    *models.TradesPage
	lastKey QueryKey

	memo *projectionMemo
}

// NewController creates a controller with the default query state.
func NewController(fetcher analytics.TradesFetcher, logger *zap.Logger, opts Options) *Controller {
	state := models.DefaultQueryState()
	if models.ValidPageSize(opts.PageSize) {
		state.PageSize = opts.PageSize
	}
	return &Controller{
		fetcher:    fetcher,
		logger:     logger.Named("tradelog"),
		timeout:    opts.Timeout,
		backtestID: opts.BacktestID,
		state:      state,
		cache:      make(map[QueryKey]*CacheEntry),
	}
}

func (c *Controller) keyLocked() QueryKey {
	return keyOf(c.backtestID, c.state)
}

// mutate applies fn to the state and issues a request if the key moved.
// The superseded key's entry is dropped, which is what makes late responses
// for it fall on the floor in Resolve.
func (c *Controller) mutate(fn func(s *models.QueryState)) *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.keyLocked()
	fn(&c.state)
	next := c.keyLocked()
	if next == prev {
		return nil
	}
	delete(c.cache, prev)
	c.logger.Debug("Query changed", zap.Stringer("from", prev), zap.Stringer("to", next))
	return c.issueLocked(next)
}

func (c *Controller) issueLocked(k QueryKey) *Request {
	if k.BacktestID == "" {
		return nil
	}
	c.seq++
	entry, ok := c.cache[k]
	if !ok {
		entry = &CacheEntry{}
		c.cache[k] = entry
	}
	entry.Status = StatusLoading
	entry.Err = nil
	entry.Seq = c.seq
	return &Request{Key: k, Seq: c.seq}
}

// SetSort sorts by column. The same column flips the order, a new column
// starts descending. Page resets to 1.
func (c *Controller) SetSort(column string) *Request {
	if column == "" {
		return nil
	}
	return c.mutate(func(s *models.QueryState) {
		if s.SortBy == column {
			s.SortOrder = s.SortOrder.Flip()
		} else {
			s.SortBy = column
			s.SortOrder = models.SortDesc
		}
		s.Page = 1
	})
}

// SetFilter sets the profitability filter. Page resets to 1.
func (c *Controller) SetFilter(f models.ProfitFilter) *Request {
	return c.mutate(func(s *models.QueryState) {
		s.FilterProfitable = f
		s.Page = 1
	})
}

// SetPage moves to page n. n is not clamped; the backend owns total_pages.
func (c *Controller) SetPage(n int) *Request {
	return c.mutate(func(s *models.QueryState) {
		s.Page = n
	})
}

// SetPageSize changes the page size. Page resets to 1.
func (c *Controller) SetPageSize(size int) (*Request, error) {
	if !models.ValidPageSize(size) {
		return nil, fmt.Errorf("%w: %d not in %v", ErrInvalidPageSize, size, models.PageSizes)
	}
	return c.mutate(func(s *models.QueryState) {
		s.PageSize = size
		s.Page = 1
	}), nil
}

// SetSearchTerm sets the client-side search. Page resets to 1; the term
// itself never reaches the backend, so a request is only returned when the
// reset moved the page.
func (c *Controller) SetSearchTerm(term string) *Request {
	return c.mutate(func(s *models.QueryState) {
		s.SearchTerm = term
		s.Page = 1
	})
}

// SetBacktest switches the backtest being viewed. An empty id disables
// fetching. The previously loaded page is forgotten.
func (c *Controller) SetBacktest(id string) *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.backtestID {
		c.last = nil
		c.lastKey = QueryKey{}
		c.memo = nil
	}

	prev := c.keyLocked()
	c.backtestID = id
	c.state.Page = 1
	next := c.keyLocked()
	if next == prev {
		return nil
	}
	delete(c.cache, prev)
	c.logger.Info("Switched backtest", zap.String("backtest_id", id))
	return c.issueLocked(next)
}

// Load issues the request for the current key if nothing has been issued
// for it yet. A failed key stays failed until Retry.
func (c *Controller) Load() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.keyLocked()
	if entry, ok := c.cache[k]; ok && entry.Status != StatusIdle {
		return nil
	}
	return c.issueLocked(k)
}

// Retry re-issues the request for the current key without touching state.
func (c *Controller) Retry() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.keyLocked()
	c.logger.Info("Retrying trades fetch", zap.Stringer("key", k))
	return c.issueLocked(k)
}

// Fetch runs req through the gateway without touching controller state.
func (c *Controller) Fetch(ctx context.Context, req *Request) (*models.TradesPage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.fetcher.FetchTrades(ctx, req.Key.Query())
}

// Do fetches req and resolves it. A nil req is a no-op. The returned error
// is the fetch error, whether or not the result was still current.
func (c *Controller) Do(ctx context.Context, req *Request) error {
	if req == nil {
		return nil
	}
	page, err := c.Fetch(ctx, req)
	c.Resolve(req, page, err)
	return err
}

// Resolve applies a fetch result if req is still the newest request for the
// current key and reports whether it did. Anything else is a stale response
// and is dropped.
func (c *Controller) Resolve(req *Request, page *models.TradesPage, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[req.Key]
	if !ok || req.Key != c.keyLocked() || entry.Seq != req.Seq {
		c.logger.Debug("Discarding stale response", zap.Stringer("key", req.Key), zap.Uint64("seq", req.Seq))
		return false
	}

	if err != nil {
		entry.Status = StatusError
		entry.Err = err
		c.logger.Warn("Trades fetch failed", zap.Stringer("key", req.Key), zap.Error(err))
		return true
	}

	entry.Status = StatusSuccess
	entry.Page = page
	entry.Err = nil
	entry.FetchedAt = time.Now()
	c.last = page
	c.lastKey = req.Key
	c.memo = nil
	return true
}

// State returns a copy of the query state.
func (c *Controller) State() models.QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BacktestID returns the backtest being viewed.
func (c *Controller) BacktestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backtestID
}

// CacheEntry returns a copy of the entry cached for k.
func (c *Controller) CacheEntry(k QueryKey) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[k]
	if !ok {
		return CacheEntry{}, false
	}
	return *entry, true
}

// CacheLen is the number of cached keys.
func (c *Controller) CacheLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// LoadedTrades returns the trades of the last applied page, unfiltered by
// search, and the backtest they belong to.
func (c *Controller) LoadedTrades() ([]models.Trade, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil, c.lastKey.BacktestID
	}
	return c.last.Trades, c.lastKey.BacktestID
}

// Snapshot is everything a shell needs to render the trade log.
type Snapshot struct {
	BacktestID string            `json:"backtest_id"`
	Enabled    bool              `json:"enabled"`
	State      models.QueryState `json:"state"`
	Key        QueryKey          `json:"-"`
	Status     Status            `json:"status"`
	Err        error             `json:"-"`
	Error      string            `json:"error,omitempty"`

	// Page is the last applied page. While a new key is loading it still
	// belongs to the previous key.
	Page *models.TradesPage `json:"-"`

	// CanExport is set when the last applied page has trades, whatever the
	// search term leaves visible.
	CanExport bool `json:"can_export"`

	View Projection `json:"view"`
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.keyLocked()
	snap := Snapshot{
		BacktestID: c.backtestID,
		Enabled:    c.backtestID != "",
		State:      c.state,
		Key:        k,
		Page:       c.last,
		CanExport:  c.last != nil && len(c.last.Trades) > 0,
	}
	if entry, ok := c.cache[k]; ok {
		snap.Status = entry.Status
		snap.Err = entry.Err
		if entry.Err != nil {
			snap.Error = entry.Err.Error()
		}
	}
	snap.View = c.projectLocked()
	return snap
}

type projectionMemo struct {
	page     *models.TradesPage
	term     string
	pageNo   int
	pageSize int
	view     Projection
}

func (c *Controller) projectLocked() Projection {
	m := c.memo
	if m != nil && m.page == c.last && m.term == c.state.SearchTerm &&
		m.pageNo == c.state.Page && m.pageSize == c.state.PageSize {
		return m.view
	}
	view := Project(c.last, c.state)
	c.memo = &projectionMemo{
		page:     c.last,
		term:     c.state.SearchTerm,
		pageNo:   c.state.Page,
		pageSize: c.state.PageSize,
		view:     view,
	}
	return view
}
