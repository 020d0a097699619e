package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backtest-tradelog/internal/analytics"
	"backtest-tradelog/internal/config"
	"backtest-tradelog/internal/logger"
	"backtest-tradelog/internal/trace"
	"backtest-tradelog/internal/tradelog"
	"backtest-tradelog/internal/web"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := trace.Init(cfg.Tracing.Enabled); err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	client := analytics.NewClient(&cfg.Analytics, log)
	ctrl := tradelog.NewController(client, log, tradelog.Options{
		BacktestID: cfg.TradeLog.BacktestID,
		PageSize:   cfg.TradeLog.PageSize,
		Timeout:    cfg.Analytics.Timeout,
	})

	srv, err := web.NewServer(cfg.Server.Port, ctrl, log)
	if err != nil {
		log.Fatal("Failed to create web server", zap.Error(err))
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigchan:
		log.Info("Shutdown signal received, gracefully shutting down...")
	case err := <-errc:
		if err != nil {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Web server shutdown failed", zap.Error(err))
	}
	if err := trace.Shutdown(ctx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
	log.Info("Trade log dashboard has been shut down.")
}
