package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"backtest-tradelog/internal/tradelog"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the single-user trade log dashboard.
type Server struct {
	router *http.ServeMux
	server *http.Server
	ctrl   *tradelog.Controller
	tmpl   *template.Template
	logger *zap.Logger
}

// NewServer creates a dashboard bound to ctrl.
func NewServer(port int, ctrl *tradelog.Controller, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router: http.NewServeMux(),
		ctrl:   ctrl,
		tmpl:   tmpl,
		logger: logger.Named("web"),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	// Page
	s.router.HandleFunc("GET /{$}", s.handleIndex)

	// Intents
	s.router.HandleFunc("GET /sort", s.intent(s.sortIntent))
	s.router.HandleFunc("GET /filter", s.intent(s.filterIntent))
	s.router.HandleFunc("GET /page", s.intent(s.pageIntent))
	s.router.HandleFunc("GET /page-size", s.intent(s.pageSizeIntent))
	s.router.HandleFunc("GET /search", s.intent(s.searchIntent))
	s.router.HandleFunc("GET /backtest", s.intent(s.backtestIntent))
	s.router.HandleFunc("GET /retry", s.intent(s.retryIntent))

	// Export
	s.router.HandleFunc("GET /export.csv", s.handleExport)

	// JSON
	s.router.HandleFunc("GET /api/view", s.handleViewJSON)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
