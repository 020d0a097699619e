package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"backtest-tradelog/internal/export"
	"backtest-tradelog/internal/models"
	"backtest-tradelog/internal/tradelog"
	"go.uber.org/zap"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type indexData struct {
	Snap      tradelog.Snapshot
	Columns   []columnView
	Filters   []option
	PageSizes []option
}

func newIndexData(snap tradelog.Snapshot) indexData {
	data := indexData{Snap: snap, Columns: columnViews(snap.State)}
	for _, f := range []models.ProfitFilter{models.FilterAll, models.FilterProfitable, models.FilterUnprofitable} {
		value, ok := f.Param()
		if !ok {
			value = "all"
		}
		data.Filters = append(data.Filters, option{Value: value, Label: filterLabels[f], Selected: f == snap.State.FilterProfitable})
	}
	for _, size := range models.PageSizes {
		data.PageSizes = append(data.PageSizes, option{Value: strconv.Itoa(size), Selected: size == snap.State.PageSize})
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// first render after startup, or after a key change that has not run yet
	if err := s.ctrl.Do(r.Context(), s.ctrl.Load()); err != nil {
		s.logger.Warn("Initial trades load failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, newIndexData(s.ctrl.Snapshot())); err != nil {
		s.logger.Error("Failed to render trade log", zap.Error(err))
	}
}

type intentFunc func(r *http.Request) (*tradelog.Request, error)

// intent applies a controller mutation, runs the fetch it produced and sends
// the browser back to the table. Fetch failures land in the controller's
// error state and are rendered there.
func (s *Server) intent(fn intentFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := fn(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.Do(r.Context(), req); err != nil {
			s.logger.Warn("Trades fetch failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) sortIntent(r *http.Request) (*tradelog.Request, error) {
	column := r.URL.Query().Get("column")
	if _, ok := columnLabels[column]; !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	return s.ctrl.SetSort(column), nil
}

func (s *Server) filterIntent(r *http.Request) (*tradelog.Request, error) {
	f, err := models.ParseProfitFilter(r.URL.Query().Get("profitable"))
	if err != nil {
		return nil, err
	}
	return s.ctrl.SetFilter(f), nil
}

func (s *Server) pageIntent(r *http.Request) (*tradelog.Request, error) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		return nil, fmt.Errorf("invalid page: %w", err)
	}
	// the pager only links to pages inside [1, total_pages]; the controller
	// forwards whatever it is given
	return s.ctrl.SetPage(n), nil
}

func (s *Server) pageSizeIntent(r *http.Request) (*tradelog.Request, error) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		return nil, fmt.Errorf("invalid page size: %w", err)
	}
	return s.ctrl.SetPageSize(size)
}

func (s *Server) searchIntent(r *http.Request) (*tradelog.Request, error) {
	return s.ctrl.SetSearchTerm(r.URL.Query().Get("q")), nil
}

func (s *Server) backtestIntent(r *http.Request) (*tradelog.Request, error) {
	return s.ctrl.SetBacktest(r.URL.Query().Get("id")), nil
}

func (s *Server) retryIntent(r *http.Request) (*tradelog.Request, error) {
	return s.ctrl.Retry(), nil
}

// handleExport streams the loaded page, not the search-narrowed rows.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	trades, backtestID := s.ctrl.LoadedTrades()
	if len(trades) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(backtestID)))
	if err := export.WriteCSV(w, trades); err != nil {
		s.logger.Error("Failed to write csv export", zap.Error(err))
	}
}

func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.ctrl.Snapshot()); err != nil {
		s.logger.Error("Failed to encode view", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
