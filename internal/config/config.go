package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"backtest-tradelog/internal/models"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Analytics Analytics `mapstructure:"analytics"`
	TradeLog  TradeLog  `mapstructure:"tradelog"`
	Server    Server    `mapstructure:"server"`
	Stub      Stub      `mapstructure:"stub"`
	Logger    Logger    `mapstructure:"logger"`
	Tracing   Tracing   `mapstructure:"tracing"`
}

// Analytics holds the configuration for the backtest analytics API.
type Analytics struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// TradeLog holds the initial view settings of the trade log.
type TradeLog struct {
	BacktestID string `mapstructure:"backtest_id"`
	PageSize   int    `mapstructure:"page_size"`
	ExportDir  string `mapstructure:"export_dir"`
}

// Server holds the configuration for the web dashboard.
type Server struct {
	Port int `mapstructure:"port"`
}

// Stub holds the configuration for the stub analytics backend.
type Stub struct {
	Port          int      `mapstructure:"port"`
	DSN           string   `mapstructure:"dsn"`
	SeedBacktests []string `mapstructure:"seed_backtests"`
	SeedTrades    int      `mapstructure:"seed_trades"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Tracing toggles the stdout span exporter.
type Tracing struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and the environment apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analytics.base_url", "http://localhost:8000")
	v.SetDefault("analytics.timeout", 30*time.Second)
	v.SetDefault("analytics.rate_limit", 10)      // requests per second
	v.SetDefault("analytics.rate_limit_burst", 5) // burst size
	v.SetDefault("tradelog.backtest_id", "")
	v.SetDefault("tradelog.page_size", 50)
	v.SetDefault("tradelog.export_dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("stub.port", 8000)
	v.SetDefault("stub.dsn", "file::memory:?cache=shared")
	v.SetDefault("stub.seed_backtests", []string{"1"})
	v.SetDefault("stub.seed_trades", 120)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("tracing.enabled", false)
}

// Validate reports settings the client cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Analytics.BaseURL) == "" {
		return errors.New("analytics.base_url must be set")
	}
	if c.Analytics.Timeout <= 0 {
		return fmt.Errorf("analytics.timeout must be positive, got %s", c.Analytics.Timeout)
	}
	if !models.ValidPageSize(c.TradeLog.PageSize) {
		return fmt.Errorf("tradelog.page_size %d is not one of %v", c.TradeLog.PageSize, models.PageSizes)
	}
	return nil
}
