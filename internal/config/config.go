package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Binance  Binance  `mapstructure:"binance"`
	Trading  Trading  `mapstructure:"trading"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Binance holds the configuration for the Binance market data API.
type Binance struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the HTTP API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Trading holds the configuration for the trading core.
type Trading struct {
	Symbol           string  `mapstructure:"symbol"`
	Interval         string  `mapstructure:"interval"`
	Strategy         string  `mapstructure:"strategy"`
	TickInterval     int     `mapstructure:"tick_interval"`     // seconds between trading ticks
	SnapshotInterval int     `mapstructure:"snapshot_interval"` // seconds between analytics snapshots
	StartingCapital  float64 `mapstructure:"starting_capital"`
	InitialBarLimit  int     `mapstructure:"initial_bar_limit"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"` // console, file or both
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("binance.base_url", "https://api.binance.com/api/v3")
	viper.SetDefault("binance.rate_limit", 20)      // requests per second
	viper.SetDefault("binance.rate_limit_burst", 5) // burst size
	viper.SetDefault("trading.interval", "1h")
	viper.SetDefault("trading.strategy", "rsi")
	viper.SetDefault("trading.tick_interval", 5)
	viper.SetDefault("trading.snapshot_interval", 30)
	viper.SetDefault("trading.starting_capital", 10000.00)
	viper.SetDefault("trading.initial_bar_limit", 1000)
	viper.SetDefault("logger.output", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
