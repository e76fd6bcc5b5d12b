package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Market    MarketConfig
	Telegram  TelegramConfig
	Auth      AuthConfig
	Trading   TradingConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
	Timezone string
}

// DatabaseConfig holds database configuration. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL string
}

// MarketConfig holds the market data client configuration
type MarketConfig struct {
	BaseURL        string
	RequestsPerSec int
	MaxRetries     int
	CacheTTL       time.Duration
}

// TelegramConfig holds notification credentials
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// AuthConfig holds JWT configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// TradingConfig holds strategy and simulation settings
type TradingConfig struct {
	Symbols        []string
	Interval       string
	ShortPeriod    int
	LongPeriod     int
	MinConfidence  int
	AutoExecute    bool
	AutoUserKey    string
	DefaultAmount  string
	DefaultBalance float64
	RiskFreeRate   float64
}

// SchedulerConfig holds cron specs
type SchedulerConfig struct {
	Enabled          bool
	ScanSchedule     string
	PositionSchedule string
	SnapshotSchedule string
}

// Load loads configuration from the environment, reading .env first when present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			Env:      getEnv("GO_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Timezone: getEnv("TZ", "UTC"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Market: MarketConfig{
			BaseURL:        getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
			RequestsPerSec: getEnvInt("MARKET_REQUESTS_PER_SEC", 5),
			MaxRetries:     getEnvInt("MARKET_MAX_RETRIES", 3),
			CacheTTL:       getEnvDuration("MARKET_CACHE_TTL", 5*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "default-secret-change-in-production"),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Trading: TradingConfig{
			Symbols:        splitList(getEnv("SCAN_SYMBOLS", "BTCUSDT,ETHUSDT")),
			Interval:       getEnv("SCAN_INTERVAL", "15m"),
			ShortPeriod:    getEnvInt("SHORT_PERIOD", 9),
			LongPeriod:     getEnvInt("LONG_PERIOD", 21),
			MinConfidence:  getEnvInt("MIN_CONFIDENCE", 70),
			AutoExecute:    getEnvBool("AUTO_EXECUTE", false),
			AutoUserKey:    getEnv("AUTO_EXECUTE_USER", "strategy-bot"),
			DefaultAmount:  getEnv("DEFAULT_TRADE_AMOUNT", ""),
			DefaultBalance: getEnvFloat("PAPER_BALANCE", 10000),
			RiskFreeRate:   getEnvFloat("RISK_FREE_RATE", 0.02),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getEnvBool("SCHEDULER_ENABLED", true),
			ScanSchedule:     getEnv("SCAN_SCHEDULE", "@every 5m"),
			PositionSchedule: getEnv("POSITION_CHECK_SCHEDULE", "@every 1m"),
			SnapshotSchedule: getEnv("RISK_SNAPSHOT_SCHEDULE", "@hourly"),
		},
	}
}

// Validate reports settings that would make the service misbehave
func (c *Config) Validate() error {
	if c.Trading.ShortPeriod <= 0 || c.Trading.ShortPeriod >= c.Trading.LongPeriod {
		return fmt.Errorf("SHORT_PERIOD (%d) must be positive and below LONG_PERIOD (%d)", c.Trading.ShortPeriod, c.Trading.LongPeriod)
	}
	if c.Trading.DefaultBalance <= 0 {
		return fmt.Errorf("PAPER_BALANCE must be positive")
	}
	if c.Market.RequestsPerSec <= 0 {
		return fmt.Errorf("MARKET_REQUESTS_PER_SEC must be positive")
	}
	if c.Market.MaxRetries < 0 {
		return fmt.Errorf("MARKET_MAX_RETRIES must not be negative")
	}
	if c.Server.Env == "production" && c.Auth.JWTSecret == "default-secret-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether GO_ENV is production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// ParseLogLevel maps LOG_LEVEL to a zerolog level, defaulting to info
func ParseLogLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid number, using default")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
	}
	return defaultValue
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
