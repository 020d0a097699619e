package stub

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"backtest-tradelog/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPageSize = 1000

// sortColumns maps accepted sort_by values to table columns.
var sortColumns = map[string]string{
	models.ColumnEntryTime:       "entry_time",
	models.ColumnExitTime:        "exit_time",
	models.ColumnSymbol:          "symbol",
	models.ColumnSide:            "side",
	models.ColumnEntryPrice:      "entry_price",
	models.ColumnExitPrice:       "exit_price",
	models.ColumnQuantity:        "quantity",
	models.ColumnPnL:             "pnl",
	models.ColumnPnLPercent:      "pnl_percent",
	models.ColumnDurationMinutes: "duration_minutes",
	models.ColumnFees:            "fees",
}

// Handler serves stored backtest trades in the analytics API shape.
type Handler struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(db *gorm.DB, logger *zap.Logger) *Handler {
	return &Handler{db: db, logger: logger.Named("stub")}
}

// NewRouter wires the stub routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/health", h.HealthHandler)
	router.GET("/api/v1/analytics/:backtestId/trades", h.TradesHandler)
	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Handled request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetHeader("X-Request-ID")),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// HealthHandler reports whether the database answers.
func (h *Handler) HealthHandler(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type tradesParams struct {
	page     int
	pageSize int
	sortBy   string
	column   string
	order    models.SortOrder
	filter   *bool
}

func parseTradesParams(c *gin.Context) (tradesParams, error) {
	p := tradesParams{}
	var err error

	if p.page, err = strconv.Atoi(c.DefaultQuery("page", "1")); err != nil || p.page < 1 {
		return p, errors.New("page must be a positive integer")
	}
	if p.pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "50")); err != nil || p.pageSize < 1 || p.pageSize > maxPageSize {
		return p, errors.New("page_size must be between 1 and 1000")
	}

	p.sortBy = c.DefaultQuery("sort_by", models.ColumnEntryTime)
	col, ok := sortColumns[p.sortBy]
	if !ok {
		return p, errors.New("unknown sort_by column " + strconv.Quote(p.sortBy))
	}
	p.column = col

	if p.order, err = models.ParseSortOrder(c.DefaultQuery("sort_order", string(models.SortDesc))); err != nil {
		return p, err
	}

	if raw, present := c.GetQuery("filter_profitable"); present {
		switch raw {
		case "true":
			v := true
			p.filter = &v
		case "false":
			v := false
			p.filter = &v
		default:
			return p, errors.New("filter_profitable must be true or false")
		}
	}
	return p, nil
}

// TradesHandler returns one sorted, filtered page of a backtest's trades.
func (h *Handler) TradesHandler(c *gin.Context) {
	backtestID := c.Param("backtestId")
	params, err := parseTradesParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	scoped := func() *gorm.DB {
		return h.db.WithContext(ctx).Model(&TradeRecord{}).Where("backtest_id = ?", backtestID)
	}

	var stored int64
	if err := scoped().Count(&stored).Error; err != nil {
		h.logger.Error("Failed to count trades", zap.String("backtest_id", backtestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load trades"})
		return
	}
	if stored == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "backtest not found"})
		return
	}

	filtered := func() *gorm.DB {
		q := scoped()
		if params.filter != nil {
			if *params.filter {
				q = q.Where("pnl > 0")
			} else {
				q = q.Where("(pnl <= 0 OR pnl IS NULL)")
			}
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		h.logger.Error("Failed to count filtered trades", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load trades"})
		return
	}

	var records []TradeRecord
	err = filtered().
		Order(clause.OrderByColumn{Column: clause.Column{Name: params.column}, Desc: params.order == models.SortDesc}).
		Order("id").
		Offset((params.page - 1) * params.pageSize).
		Limit(params.pageSize).
		Find(&records).Error
	if err != nil {
		h.logger.Error("Failed to get trades from database", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load trades"})
		return
	}

	trades := make([]models.Trade, len(records))
	for i, r := range records {
		trades[i] = r.Trade()
	}

	totalPages := int((total + int64(params.pageSize) - 1) / int64(params.pageSize))
	c.JSON(http.StatusOK, models.TradesPage{
		Success:          true,
		Trades:           trades,
		TotalTrades:      int(total),
		Page:             params.page,
		PageSize:         params.pageSize,
		TotalPages:       totalPages,
		SortBy:           params.sortBy,
		SortOrder:        params.order,
		FilterProfitable: params.filter,
	})
}
