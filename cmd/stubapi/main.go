package main

import (
	"fmt"

	"backtest-tradelog/internal/config"
	"backtest-tradelog/internal/logger"
	"backtest-tradelog/internal/stub"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// the real API sends numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true

	db, err := stub.NewDatabase(cfg.Stub.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	for _, id := range cfg.Stub.SeedBacktests {
		if err := stub.Seed(db, id, cfg.Stub.SeedTrades); err != nil {
			log.Fatal("Failed to seed backtest", zap.String("backtest_id", id), zap.Error(err))
		}
		log.Info("Seeded backtest", zap.String("backtest_id", id), zap.Int("trades", cfg.Stub.SeedTrades))
	}

	gin.SetMode(gin.ReleaseMode)
	router := stub.NewRouter(stub.NewHandler(db, log))

	addr := fmt.Sprintf(":%d", cfg.Stub.Port)
	log.Info("Starting stub analytics API", zap.String("address", addr))
	if err := router.Run(addr); err != nil {
		log.Fatal("Stub API failed", zap.Error(err))
	}
}
