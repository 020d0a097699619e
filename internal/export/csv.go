package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"backtest-tradelog/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ContentType is the MIME type of exported files.
const ContentType = "text/csv"

// Header is the fixed column header of the trade export.
var Header = []string{
	"Entry Time", "Exit Time", "Symbol", "Side",
	"Entry Price", "Exit Price", "Quantity",
	"P&L", "P&L %", "Duration (min)", "Fees",
}

// FileName is the download name for a backtest's trades.
func FileName(backtestID string) string {
	return fmt.Sprintf("trades_backtest_%s.csv", backtestID)
}

func fixed(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}

// Record renders one trade as a CSV row. Absent numbers become empty cells.
func Record(t models.Trade) []string {
	return []string{
		t.EntryTime,
		t.ExitTime,
		t.Symbol,
		string(t.Side),
		fixed(t.EntryPrice, 2),
		fixed(t.ExitPrice, 2),
		fixed(t.Quantity, 2),
		fixed(t.PnL, 2),
		fixed(t.PnLPercent, 2),
		fixed(t.DurationMinutes, 0),
		fixed(t.Fees, 2),
	}
}

// WriteCSV writes the header and one row per trade to w.
func WriteCSV(w io.Writer, trades []models.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, t := range trades {
		if err := cw.Write(Record(t)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ErrUnsafeBacktestID is returned by Export for ids that would place the file
// outside the export directory.
var ErrUnsafeBacktestID = errors.New("backtest id is not usable in a file name")

func checkBacktestID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrUnsafeBacktestID, id)
	}
	return nil
}

// Exporter saves trade exports into a directory.
type Exporter struct {
	dir    string
	logger *zap.Logger
}

// NewExporter creates an Exporter writing into dir.
func NewExporter(dir string, logger *zap.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger.Named("export")}
}

// Export saves trades as trades_backtest_<id>.csv and returns its path.
// An empty list is a no-op: nothing is created and the path is "".
// The file is staged in a temporary that is closed and removed on every
// return path, so a failed export leaves no partial file behind.
func (e *Exporter) Export(trades []models.Trade, backtestID string) (path string, err error) {
	if len(trades) == 0 {
		return "", nil
	}
	if err := checkBacktestID(backtestID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(e.dir, ".trades-*.csv.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp export file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Warn("Failed to remove temp export file", zap.String("path", tmp.Name()), zap.Error(rmErr))
		}
	}()

	if err := WriteCSV(tmp, trades); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp export file: %w", err)
	}

	path = filepath.Join(e.dir, FileName(backtestID))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	e.logger.Info("Exported trades",
		zap.String("backtest_id", backtestID),
		zap.Int("trades", len(trades)),
		zap.String("path", path),
	)
	return path, nil
}
