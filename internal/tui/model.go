package tui

import (
	"context"
	"fmt"
	"strings"

	"backtest-tradelog/internal/export"
	"backtest-tradelog/internal/models"
	"backtest-tradelog/internal/tradelog"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Messages

type fetchedMsg struct {
	req  *tradelog.Request
	page *models.TradesPage
	err  error
}

type exportedMsg struct {
	path string
	err  error
}

// Model is the Bubble Tea model of the terminal trade log.
type Model struct {
	ctx      context.Context
	ctrl     *tradelog.Controller
	exporter *export.Exporter
	logger   *zap.Logger

	searching bool
	input     string

	// one-line feedback for the last export
	notice string

	width int
}

// New creates a terminal trade log over ctrl. ctx bounds every fetch.
func New(ctx context.Context, ctrl *tradelog.Controller, exporter *export.Exporter, logger *zap.Logger) Model {
	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		exporter: exporter,
		logger:   logger.Named("tui"),
		width:    120,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.fetch(m.ctrl.Load())
}

func (m Model) fetch(req *tradelog.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		page, err := ctrl.Fetch(ctx, req)
		return fetchedMsg{req: req, page: page, err: err}
	}
}

// Update handles key presses and fetch results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case fetchedMsg:
		m.ctrl.Resolve(msg.req, msg.page, msg.err)
		return m, nil

	case exportedMsg:
		switch {
		case msg.err != nil:
			m.notice = "Export failed: " + msg.err.Error()
		case msg.path == "":
			m.notice = "Nothing to export"
		default:
			m.notice = "Saved " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.ctrl.State()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.ctrl.Snapshot().View.HasPrev {
			return m, m.fetch(m.ctrl.SetPage(state.Page - 1))
		}
	case "right", "l":
		if m.ctrl.Snapshot().View.HasNext {
			return m, m.fetch(m.ctrl.SetPage(state.Page + 1))
		}
	case "s":
		return m, m.fetch(m.ctrl.SetSort(nextColumn(state.SortBy)))
	case "o":
		return m, m.fetch(m.ctrl.SetSort(state.SortBy))
	case "f":
		return m, m.fetch(m.ctrl.SetFilter(state.FilterProfitable.Next()))
	case "z":
		req, err := m.ctrl.SetPageSize(nextPageSize(state.PageSize))
		if err != nil {
			m.logger.Error("Page size rejected", zap.Error(err))
			return m, nil
		}
		return m, m.fetch(req)
	case "/":
		m.searching = true
		m.input = state.SearchTerm
	case "r":
		return m, m.fetch(m.ctrl.Retry())
	case "e":
		return m, m.export()
	}
	return m, nil
}

// updateSearch edits the search term live. Enter keeps it, esc clears it.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	default:
		return m, nil
	}
	return m, m.fetch(m.ctrl.SetSearchTerm(m.input))
}

func (m Model) export() tea.Cmd {
	trades, backtestID := m.ctrl.LoadedTrades()
	exporter := m.exporter
	return func() tea.Msg {
		path, err := exporter.Export(trades, backtestID)
		return exportedMsg{path: path, err: err}
	}
}

func nextColumn(current string) string {
	for i, c := range models.Columns {
		if c == current {
			return models.Columns[(i+1)%len(models.Columns)]
		}
	}
	return models.Columns[0]
}

func nextPageSize(current int) int {
	for i, s := range models.PageSizes {
		if s == current {
			return models.PageSizes[(i+1)%len(models.PageSizes)]
		}
	}
	return models.PageSizes[0]
}

// View renders the trade log screen.
func (m Model) View() string {
	snap := m.ctrl.Snapshot()

	title := titleStyle.Render("Trade Log")
	if snap.BacktestID != "" {
		title += dimStyle.Render(" · backtest " + snap.BacktestID)
	}

	if !snap.Enabled {
		return lipgloss.JoinVertical(lipgloss.Left, title, "",
			dimStyle.Render("No backtest selected. Set tradelog.backtest_id or pass an id."), "",
			helpStyle.Render("q quit"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.renderControls(snap),
		m.renderStatus(snap),
		m.renderTable(snap),
		m.renderSummary(snap),
		"",
		helpStyle.Render("←/→ page · s sort · o order · f filter · z size · / search · r retry · e export · q quit"),
	)
}

func (m Model) renderControls(snap tradelog.Snapshot) string {
	s := snap.State
	search := s.SearchTerm
	if m.searching {
		search = m.input + "█"
	}
	return dimStyle.Render(fmt.Sprintf("sort %s %s · filter %s · %d / page · search: %s",
		s.SortBy, s.SortOrder, s.FilterProfitable, s.PageSize, search))
}

func (m Model) renderStatus(snap tradelog.Snapshot) string {
	switch {
	case snap.Err != nil:
		return errorStyle.Render("Failed to load trades: "+snap.Error) + helpStyle.Render("  (r to retry)")
	case snap.Status == tradelog.StatusLoading:
		return dimStyle.Render("Loading…")
	case m.notice != "":
		return dimStyle.Render(m.notice)
	}
	return ""
}

func (m Model) renderTable(snap tradelog.Snapshot) string {
	var b strings.Builder

	headers := make([]string, 0, len(columns))
	for _, c := range columns {
		title := c.title
		if c.key == snap.State.SortBy {
			if snap.State.SortOrder == models.SortAsc {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		headers = append(headers, cell(c, title, headerStyle))
	}
	b.WriteString(strings.Join(headers, " "))
	b.WriteString("\n")

	if len(snap.View.Rows) == 0 {
		b.WriteString(dimStyle.Render("No trades."))
		return b.String()
	}
	for _, t := range snap.View.Rows {
		style := lossStyle
		if t.IsWinning() {
			style = winStyle
		}
		values := rowValues(t)
		cells := make([]string, len(columns))
		for i, c := range columns {
			st := lipgloss.NewStyle()
			if c.key == models.ColumnPnL || c.key == models.ColumnPnLPercent {
				st = style
			}
			cells[i] = cell(c, values[i], st)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderSummary(snap tradelog.Snapshot) string {
	v := snap.View
	return fmt.Sprintf("Showing %d of %d trades (%d–%d) · %s · %s · Page %d of %d",
		len(v.Rows), v.Total, v.RangeStart, v.RangeEnd,
		winStyle.Render(fmt.Sprintf("Winners %d", v.Winners)),
		lossStyle.Render(fmt.Sprintf("Losers %d", v.Losers)),
		snap.State.Page, v.TotalPages)
}
