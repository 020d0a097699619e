package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"backtest-tradelog/internal/analytics"
	"backtest-tradelog/internal/config"
	"backtest-tradelog/internal/export"
	"backtest-tradelog/internal/logger"
	"backtest-tradelog/internal/tradelog"
	"backtest-tradelog/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Usage: tradelog [backtest-id]
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) > 1 {
		cfg.TradeLog.BacktestID = os.Args[1]
	}

	// the screen owns stdout and stderr
	log, err := logger.NewFileLogger(cfg.Logger.Level, "tradelog.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	client := analytics.NewClient(&cfg.Analytics, log)
	ctrl := tradelog.NewController(client, log, tradelog.Options{
		BacktestID: cfg.TradeLog.BacktestID,
		PageSize:   cfg.TradeLog.PageSize,
		Timeout:    cfg.Analytics.Timeout,
	})
	exporter := export.NewExporter(cfg.TradeLog.ExportDir, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received")
		cancel()
	}()

	p := tea.NewProgram(tui.New(ctx, ctrl, exporter, log), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Error("Trade log exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "tradelog: %v\n", err)
		os.Exit(1)
	}
}
