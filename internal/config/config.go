// Package config provides configuration management for the edgeboard service.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	Server        ServerConfig        `mapstructure:"server" validate:"required"`
	Report        ReportConfig        `mapstructure:"report"`
	Backtest      BacktestConfig      `mapstructure:"backtest"`
	DataIngestion DataIngestionConfig `mapstructure:"data_ingestion"`
	Events        EventsConfig        `mapstructure:"events"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Timezone    string `mapstructure:"timezone" validate:"required,timezone"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port                   int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins         []string `mapstructure:"allowed_origins"`
	ReadTimeoutSeconds     int      `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds    int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	RequestTimeoutSeconds  int      `mapstructure:"request_timeout_seconds" validate:"gte=0"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
	LeaguesCacheTTLSeconds int      `mapstructure:"leagues_cache_ttl_seconds" validate:"gte=0"`
	MaxUploadBytes         int64    `mapstructure:"max_upload_bytes" validate:"gte=0"`
}

// ReportConfig holds the report defaults
type ReportConfig struct {
	LookbackDays          int     `mapstructure:"lookback_days" validate:"gte=0"`
	HighWinMinProbability float64 `mapstructure:"high_win_min_probability" validate:"gte=0,lte=1"`
	PositiveEVMinEV       float64 `mapstructure:"positive_ev_min_ev"`
	MinSamples            int     `mapstructure:"min_samples" validate:"gte=0"`
	ShortWindowDays       int     `mapstructure:"short_window_days" validate:"gte=0"`
	LongWindowDays        int     `mapstructure:"long_window_days" validate:"gte=0"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	StartDate             string  `mapstructure:"start_date" validate:"omitempty,datetime"`
	EndDate               string  `mapstructure:"end_date" validate:"omitempty,datetime"`
	LookbackDays          int     `mapstructure:"lookback_days" validate:"gte=0"`
	MinProbability        float64 `mapstructure:"min_probability" validate:"gte=0,lte=1"`
	MinEV                 float64 `mapstructure:"min_ev"`
	StakeUnits            float64 `mapstructure:"stake_units" validate:"gte=0"`
	MaxConcurrent         int     `mapstructure:"max_concurrent" validate:"gte=0"`
	MonteCarloIterations  int     `mapstructure:"monte_carlo_iterations" validate:"gte=0"`
	MonteCarloSeed        int64   `mapstructure:"monte_carlo_seed"`
	WalkForwardWindowDays int     `mapstructure:"walk_forward_window_days" validate:"gte=0"`
	OutputPath            string  `mapstructure:"output_path"`
}

// DataIngestionConfig represents data ingestion configuration
type DataIngestionConfig struct {
	Sources  []DataSourceConfig `mapstructure:"sources" validate:"dive"`
	Schedule ScheduleConfig     `mapstructure:"schedule"`
}

// DataSourceConfig represents a single dataset source
type DataSourceConfig struct {
	Name               string  `mapstructure:"name" validate:"required"`
	Type               string  `mapstructure:"type" validate:"required,oneof=directory http"`
	Enabled            bool    `mapstructure:"enabled"`
	Path               string  `mapstructure:"path"`
	BaseURL            string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey             string  `mapstructure:"api_key"`
	Cron               string  `mapstructure:"cron" validate:"omitempty,cron"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries         int     `mapstructure:"max_retries" validate:"gte=0"`
}

// ScheduleConfig represents data ingestion scheduling
type ScheduleConfig struct {
	DefaultCron string `mapstructure:"default_cron" validate:"omitempty,cron"`
	RunOnStart  bool   `mapstructure:"run_on_start"`
}

// EventsConfig configures the event stream and its Redis fan-out
type EventsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	Channel       string `mapstructure:"channel"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// UsesRedis reports whether events are relayed through Redis
func (c *Config) UsesRedis() bool {
	return c.Events.Enabled && c.Events.RedisAddr != ""
}

// LeaguesCacheTTL returns the leagues cache lifetime
func (s ServerConfig) LeaguesCacheTTL() time.Duration {
	return time.Duration(s.LeaguesCacheTTLSeconds) * time.Second
}

// Timeout converts a seconds setting to a duration, substituting fallback for zero
func Timeout(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// EnabledSources returns the sources switched on for ingestion
func (d DataIngestionConfig) EnabledSources() []DataSourceConfig {
	enabled := make([]DataSourceConfig, 0, len(d.Sources))
	for _, source := range d.Sources {
		if source.Enabled {
			enabled = append(enabled, source)
		}
	}
	return enabled
}
