package stub

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"backtest-tradelog/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TradeRecord is a stored backtest trade.
type TradeRecord struct {
	ID              uint                `gorm:"primaryKey"`
	BacktestID      string              `gorm:"column:backtest_id;index;not null"`
	EntryTime       time.Time           `gorm:"column:entry_time;index"`
	ExitTime        time.Time           `gorm:"column:exit_time"`
	Symbol          string              `gorm:"column:symbol;not null"`
	Side            string              `gorm:"column:side;not null"`
	EntryPrice      decimal.NullDecimal `gorm:"column:entry_price;type:decimal(20,8)"`
	ExitPrice       decimal.NullDecimal `gorm:"column:exit_price;type:decimal(20,8)"`
	Quantity        decimal.NullDecimal `gorm:"column:quantity;type:decimal(20,8)"`
	PnL             decimal.NullDecimal `gorm:"column:pnl;type:decimal(20,8)"`
	PnLPercent      decimal.NullDecimal `gorm:"column:pnl_percent;type:decimal(20,8)"`
	DurationMinutes decimal.NullDecimal `gorm:"column:duration_minutes;type:decimal(20,8)"`
	Fees            decimal.NullDecimal `gorm:"column:fees;type:decimal(20,8)"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (TradeRecord) TableName() string { return "backtest_trades" }

// Trade converts the record to the API shape.
func (r TradeRecord) Trade() models.Trade {
	return models.Trade{
		ID:              models.TradeID(fmt.Sprint(r.ID)),
		EntryTime:       r.EntryTime.UTC().Format(time.RFC3339),
		ExitTime:        r.ExitTime.UTC().Format(time.RFC3339),
		Symbol:          r.Symbol,
		Side:            models.Side(r.Side),
		EntryPrice:      r.EntryPrice,
		ExitPrice:       r.ExitPrice,
		Quantity:        r.Quantity,
		PnL:             r.PnL,
		PnLPercent:      r.PnLPercent,
		DurationMinutes: r.DurationMinutes,
		Fees:            r.Fees,
	}
}

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&TradeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

var seedSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT", "ADAUSDT"}

// Seed replaces the trades of backtestID with n generated ones. The data is
// deterministic per backtest id and deliberately includes zero P&L rows and
// rows with missing numeric fields.
func Seed(db *gorm.DB, backtestID string, n int) error {
	h := fnv.New64a()
	_, _ = h.Write([]byte(backtestID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]TradeRecord, 0, n)
	for i := 0; i < n; i++ {
		entry := base.Add(time.Duration(i*90+rng.Intn(60)) * time.Minute)
		minutes := 5 + rng.Intn(600)
		side := models.SideBuy
		if rng.Intn(2) == 1 {
			side = models.SideSell
		}

		qty := decimal.NewFromFloat(0.1 + rng.Float64()*2).Round(4)
		entryPx := decimal.NewFromFloat(100 + rng.Float64()*900).Round(4)
		move := decimal.NewFromFloat((rng.Float64() - 0.45) * 0.04)
		exitPx := entryPx.Mul(decimal.NewFromInt(1).Add(move)).Round(4)
		pnl := exitPx.Sub(entryPx).Mul(qty)
		if side == models.SideSell {
			pnl = pnl.Neg()
		}
		fees := entryPx.Add(exitPx).Mul(qty).Mul(decimal.NewFromFloat(0.0005)).Round(4)
		pnl = pnl.Sub(fees).Round(4)

		rec := TradeRecord{
			BacktestID:      backtestID,
			EntryTime:       entry,
			ExitTime:        entry.Add(time.Duration(minutes) * time.Minute),
			Symbol:          seedSymbols[rng.Intn(len(seedSymbols))],
			Side:            string(side),
			EntryPrice:      decimal.NewNullDecimal(entryPx),
			ExitPrice:       decimal.NewNullDecimal(exitPx),
			Quantity:        decimal.NewNullDecimal(qty),
			PnL:             decimal.NewNullDecimal(pnl),
			PnLPercent:      decimal.NewNullDecimal(pnl.Div(entryPx.Mul(qty)).Mul(decimal.NewFromInt(100)).Round(4)),
			DurationMinutes: decimal.NewNullDecimal(decimal.NewFromInt(int64(minutes))),
			Fees:            decimal.NewNullDecimal(fees),
		}
		switch {
		case i%17 == 5:
			rec.PnL = decimal.NewNullDecimal(decimal.Zero)
		case i%19 == 7:
			rec.PnL = decimal.NullDecimal{}
			rec.PnLPercent = decimal.NullDecimal{}
		case i%13 == 3:
			rec.EntryPrice = decimal.NullDecimal{}
			rec.Quantity = decimal.NullDecimal{}
			rec.Fees = decimal.NullDecimal{}
		}
		records = append(records, rec)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("backtest_id = ?", backtestID).Delete(&TradeRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear backtest %s: %w", backtestID, err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 200).Error; err != nil {
			return fmt.Errorf("failed to seed backtest %s: %w", backtestID, err)
		}
		return nil
	})
}
