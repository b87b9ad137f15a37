package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Steam     SteamConfig
	Cache     CacheConfig
	PriceDB   PriceDBConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"300s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"skinvault-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	CasesFile   string `envconfig:"CASES_FILE" default:"./data/cases.yaml"`
}

// SteamConfig holds marketplace client settings.
//
// The request delay keeps us under Steam's community rate limit of
// 200 requests per 5 minutes (one request every 1.5s on average);
// 1.8s leaves a safety margin.
type SteamConfig struct {
	Currency      int           `envconfig:"STEAM_MARKET_CURRENCY" default:"1"` // 1 = USD
	AppID         int           `envconfig:"STEAM_APPID" default:"730"`         // 730 = CS2
	RequestDelay  time.Duration `envconfig:"STEAM_REQUEST_DELAY" default:"1800ms"`
	RequestJitter time.Duration `envconfig:"STEAM_REQUEST_JITTER" default:"300ms"`
	DailyLimit    int           `envconfig:"STEAM_DAILY_LIMIT" default:"100000"`
	HTTPTimeout   time.Duration `envconfig:"STEAM_HTTP_TIMEOUT" default:"30s"`
	PageDelay     time.Duration `envconfig:"STEAM_INVENTORY_PAGE_DELAY" default:"1s"`
	MaxPages      int           `envconfig:"STEAM_INVENTORY_MAX_PAGES" default:"10"`
}

// CacheConfig holds the process-local price cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"6h"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// PriceDBConfig holds persistent price store settings.
type PriceDBConfig struct {
	Type string `envconfig:"PRICE_DB_TYPE" default:"sqlite"` // sqlite, postgres, or mysql
	Path string `envconfig:"PRICE_DB_PATH" default:"./data/prices.db"`
	// PostgreSQL settings
	Host     string `envconfig:"PRICE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"PRICE_DB_PORT" default:"5432"`
	Name     string `envconfig:"PRICE_DB_NAME" default:"skinvault"`
	User     string `envconfig:"PRICE_DB_USER" default:"postgres"`
	Password string `envconfig:"PRICE_DB_PASS" default:""`
	SSLMode  string `envconfig:"PRICE_DB_SSLMODE" default:"disable"`
	// MySQL settings
	MySQLHost string `envconfig:"PRICE_DB_MYSQL_HOST" default:"localhost"`
	MySQLPort int    `envconfig:"PRICE_DB_MYSQL_PORT" default:"3306"`

	Staleness time.Duration `envconfig:"PRICE_STALENESS" default:"168h"` // 7 days
}

// SchedulerConfig holds batch-refresh settings.
type SchedulerConfig struct {
	Enabled   bool          `envconfig:"REFRESH_ENABLED" default:"true"`
	CronSpec  string        `envconfig:"REFRESH_CRON" default:"0 0 3 * * 1"` // Monday 03:00
	BatchSize int           `envconfig:"REFRESH_BATCH_SIZE" default:"100"`
	ItemDelay time.Duration `envconfig:"REFRESH_ITEM_DELAY" default:"5s"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (p *PriceDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (p *PriceDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		p.User, p.Password, p.MySQLHost, p.MySQLPort, p.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
