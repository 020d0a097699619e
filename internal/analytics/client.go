package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backtest-tradelog/internal/config"
	"backtest-tradelog/internal/models"
	"backtest-tradelog/internal/trace"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	tradesPath      = "/api/v1/analytics/{backtestId}/trades"
	requestIDHeader = "X-Request-ID"
	defaultTimeout  = 30 * time.Second
)

// TradesQuery is the backend-facing part of the trade log state.
type TradesQuery struct {
	BacktestID string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  models.SortOrder
	Filter     models.ProfitFilter
}

// Params encodes the query string. filter_profitable is left out entirely
// when no filter is set.
func (q TradesQuery) Params() url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	params.Set("sort_by", q.SortBy)
	params.Set("sort_order", string(q.SortOrder))
	if v, ok := q.Filter.Param(); ok {
		params.Set("filter_profitable", v)
	}
	return params
}

// TradesFetcher fetches one page of backtest trades.
type TradesFetcher interface {
	FetchTrades(ctx context.Context, q TradesQuery) (*models.TradesPage, error)
}

// Client is a client for the backtest analytics REST API.
// It performs exactly one attempt per call; retrying is left to the caller.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ TradesFetcher = (*Client)(nil)

// NewClient creates a new analytics API client.
func NewClient(cfg *config.Analytics, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		client:  client,
		logger:  logger.Named("analytics"),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// doRequest executes a single rate-limited attempt and maps failures onto
// NetworkError and HTTPError.
func (c *Client) doRequest(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("rate limiter wait failed: %w", err)}
	}

	requestID := uuid.NewString()
	req.SetContext(ctx).SetHeader(requestIDHeader, requestID)

	l := c.logger.With(
		zap.String("method", method),
		zap.String("url", c.client.BaseURL+path),
		zap.String("request_id", requestID),
	)
	l.Debug("Executing request")

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil && resp != nil && resp.RawResponse != nil && resp.IsSuccess() {
		// the server answered; only the result body failed to parse
		l.Warn("Response decode failed", zap.Int("status", resp.StatusCode()), zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if err != nil {
		l.Warn("Request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, &NetworkError{Err: err}
	}

	status := resp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		l.Warn("Request rejected", zap.Int("status", status))
		return nil, &HTTPError{StatusCode: status, Status: resp.Status()}
	}

	l.Debug("Request completed", zap.Int("status", status), zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// FetchTrades fetches one page of trades for a backtest.
func (c *Client) FetchTrades(ctx context.Context, q TradesQuery) (*models.TradesPage, error) {
	ctx, span := trace.StartSpan(ctx, "analytics.FetchTrades", oteltrace.WithAttributes(
		attribute.String("backtest.id", q.BacktestID),
		attribute.Int("page", q.Page),
		attribute.Int("page_size", q.PageSize),
		attribute.String("sort_by", q.SortBy),
	))
	defer span.End()

	req := c.client.R().
		SetPathParam("backtestId", q.BacktestID).
		SetQueryParamsFromValues(q.Params()).
		SetResult(&models.TradesPage{}).
		ForceContentType("application/json")

	resp, err := c.doRequest(ctx, http.MethodGet, tradesPath, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to fetch trades for backtest %s: %w", q.BacktestID, err)
	}

	page := resp.Result().(*models.TradesPage)
	if !page.Success {
		span.SetStatus(codes.Error, ErrUnsuccessful.Error())
		return nil, fmt.Errorf("failed to fetch trades for backtest %s: %w", q.BacktestID, ErrUnsuccessful)
	}

	c.logger.Debug("Fetched trades page",
		zap.String("backtest_id", q.BacktestID),
		zap.Int("page", page.Page),
		zap.Int("trades", len(page.Trades)),
		zap.Int("total_trades", page.TotalTrades),
	)
	return page, nil
}
