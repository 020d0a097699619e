package tui

import (
	"backtest-tradelog/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type column struct {
	key   string
	title string
	width int
	right bool
}

var columns = []column{
	{key: models.ColumnEntryTime, title: "Entry", width: 16},
	{key: models.ColumnExitTime, title: "Exit", width: 16},
	{key: models.ColumnSymbol, title: "Symbol", width: 10},
	{key: models.ColumnSide, title: "Side", width: 5},
	{key: models.ColumnEntryPrice, title: "Entry Px", width: 11, right: true},
	{key: models.ColumnExitPrice, title: "Exit Px", width: 11, right: true},
	{key: models.ColumnQuantity, title: "Qty", width: 10, right: true},
	{key: models.ColumnPnL, title: "P&L", width: 10, right: true},
	{key: models.ColumnPnLPercent, title: "P&L %", width: 7, right: true},
	{key: models.ColumnDurationMinutes, title: "Min", width: 6, right: true},
	{key: models.ColumnFees, title: "Fees", width: 8, right: true},
}

func cell(c column, s string, style lipgloss.Style) string {
	st := style.Width(c.width).MaxWidth(c.width)
	if c.right {
		st = st.Align(lipgloss.Right)
	}
	return st.Render(s)
}
