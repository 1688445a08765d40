// Package config defines the top-level configuration for lottostats and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/lotto"
	"github.com/alanyoungcy/lottostats/internal/strategy"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LOTTO_* environment variables.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Postgres  PostgresConfig  `toml:"postgres"`
	SQLite    SQLiteConfig    `toml:"sqlite"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Generator GeneratorConfig `toml:"generator"`
	Collector CollectorConfig `toml:"collector"`
	Archive   ArchiveConfig   `toml:"archive"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// StorageConfig selects the persistence backend: "none", "postgres" or
// "sqlite".
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// RedisConfig holds Redis connection parameters. When disabled, memoisation is
// process-local and rate limiting, locking and the event bus are off.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	CacheTTL   duration `toml:"cache_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AnalysisConfig holds the defaults for analysis and recommendation requests.
type AnalysisConfig struct {
	// Period is the number of most recent draws analysed.
	Period int `toml:"period"`
	// Source is "synthetic", "store" or "auto".
	Source    string `toml:"source"`
	Strategy  string `toml:"strategy"`
	Sets      int    `toml:"sets"`
	CountMode string `toml:"count_mode"`
	// MaxPeriod and MaxSets bound API requests.
	MaxPeriod int `toml:"max_period"`
	MaxSets   int `toml:"max_sets"`
}

// GeneratorConfig controls synthetic history.
type GeneratorConfig struct {
	BaseRound int `toml:"base_round"`
	// Seed fixes the history; 0 draws a fresh seed per process.
	Seed uint64 `toml:"seed"`
	// Biased applies the default low-number skew.
	Biased bool `toml:"biased"`
}

// CollectorConfig holds the official draw collection parameters.
type CollectorConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	// Schedule is a cron spec; "@every 1h" style descriptors are accepted.
	Schedule   string   `toml:"schedule"`
	StartRound int      `toml:"start_round"`
	MaxRounds  int      `toml:"max_rounds"`
	Timeout    duration `toml:"timeout"`
	LockTTL    duration `toml:"lock_ttl"`
}

// ArchiveConfig holds cold-storage export parameters.
type ArchiveConfig struct {
	Enabled       bool   `toml:"enabled"`
	Schedule      string `toml:"schedule"`
	RetentionDays int    `toml:"retention_days"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey guards mutating routes when set.
	APIKey string `toml:"api_key"`
	// EncryptedAPIKeyPath loads the API key from a keyfile instead.
	EncryptedAPIKeyPath string   `toml:"encrypted_api_key_path"`
	APIKeyPassword      string   `toml:"api_key_password"`
	RateLimit           int      `toml:"rate_limit"`
	RateWindow          duration `toml:"rate_window"`
	// TrustProxy takes the client IP from proxy headers. Enable only behind
	// a reverse proxy that sets X-Forwarded-For.
	TrustProxy bool `toml:"trust_proxy"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{Driver: "none"},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "lottostats",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		SQLite: SQLiteConfig{Path: "data/lottostats.db"},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			CacheTTL:   duration{24 * time.Hour},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "lottostats-archive",
			ForcePathStyle: true,
		},
		Analysis: AnalysisConfig{
			Period:    100,
			Source:    "synthetic",
			Strategy:  strategy.Balanced.String(),
			Sets:      5,
			CountMode: domain.CountMain.String(),
			MaxPeriod: 2000,
			MaxSets:   50,
		},
		Generator: GeneratorConfig{
			BaseRound: 1000,
			Biased:    true,
		},
		Collector: CollectorConfig{
			BaseURL:    "https://www.dhlottery.co.kr",
			Schedule:   "0 22 * * 6",
			StartRound: 1,
			MaxRounds:  100,
			Timeout:    duration{10 * time.Second},
			LockTTL:    duration{10 * time.Minute},
		},
		Archive: ArchiveConfig{
			Schedule:      "0 3 1 * *",
			RetentionDays: 90,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"draws_collected", "archive_completed", "error"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":    true,
	"generate": true,
	"collect":  true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validDrivers = map[string]bool{
	"none":     true,
	"postgres": true,
	"sqlite":   true,
}

var validSources = map[string]bool{
	"synthetic": true,
	"store":     true,
	"auto":      true,
}

var validEvents = map[string]bool{
	"recommendation_generated": true,
	"draws_collected":          true,
	"archive_completed":        true,
	"error":                    true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, generate, collect, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Storage
	driver := strings.ToLower(c.Storage.Driver)
	if !validDrivers[driver] {
		errs = append(errs, fmt.Sprintf("storage: unknown driver %q (valid: none, postgres, sqlite)", c.Storage.Driver))
	}
	if driver == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}
	if driver == "sqlite" && strings.TrimSpace(c.SQLite.Path) == "" {
		errs = append(errs, "sqlite: path must not be empty")
	}
	if mode == "collect" && driver == "none" {
		errs = append(errs, "collect mode requires storage.driver postgres or sqlite")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Analysis
	a := c.Analysis
	if a.MaxPeriod < 1 {
		errs = append(errs, "analysis: max_period must be >= 1")
	}
	if a.Period < 1 || a.Period > a.MaxPeriod {
		errs = append(errs, fmt.Sprintf("analysis: period must be 1-%d, got %d", a.MaxPeriod, a.Period))
	}
	if !validSources[strings.ToLower(a.Source)] {
		errs = append(errs, fmt.Sprintf("analysis: unknown source %q (valid: synthetic, store, auto)", a.Source))
	}
	if strings.ToLower(a.Source) != "synthetic" && driver == "none" {
		errs = append(errs, fmt.Sprintf("analysis: source %q requires a storage driver", a.Source))
	}
	if _, err := strategy.ParseKind(a.Strategy); err != nil {
		errs = append(errs, fmt.Sprintf("analysis: %v", err))
	}
	if a.MaxSets < 1 {
		errs = append(errs, "analysis: max_sets must be >= 1")
	}
	if a.Sets < 1 || a.Sets > a.MaxSets {
		errs = append(errs, fmt.Sprintf("analysis: sets must be 1-%d, got %d", a.MaxSets, a.Sets))
	}
	if _, err := domain.ParseCountMode(a.CountMode); err != nil {
		errs = append(errs, fmt.Sprintf("analysis: %v", err))
	}

	if c.Generator.BaseRound < 0 {
		errs = append(errs, "generator: base_round must be >= 0")
	}
	if c.Generator.Seed > lotto.MaxSeed {
		errs = append(errs, fmt.Sprintf("generator: seed must be <= %d", uint64(lotto.MaxSeed)))
	}

	// Collector
	if c.Collector.Enabled || mode == "collect" {
		if c.Collector.BaseURL == "" {
			errs = append(errs, "collector: base_url must not be empty")
		}
		if c.Collector.StartRound < 1 {
			errs = append(errs, "collector: start_round must be >= 1")
		}
		if c.Collector.MaxRounds < 1 {
			errs = append(errs, "collector: max_rounds must be >= 1")
		}
		if c.Collector.Timeout.Duration <= 0 {
			errs = append(errs, "collector: timeout must be > 0")
		}
	}
	if c.Collector.Enabled {
		if _, err := cron.ParseStandard(c.Collector.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("collector: invalid schedule %q: %v", c.Collector.Schedule, err))
		}
	}

	// Archive
	if c.Archive.Enabled {
		if !c.S3.Enabled {
			errs = append(errs, "archive: requires s3.enabled")
		}
		if driver == "none" {
			errs = append(errs, "archive: requires a storage driver")
		}
		if _, err := cron.ParseStandard(c.Archive.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("archive: invalid schedule %q: %v", c.Archive.Schedule, err))
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
	}

	// Server
	if mode == "serve" || mode == "full" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}
	if c.Server.EncryptedAPIKeyPath != "" && c.Server.APIKeyPassword == "" {
		errs = append(errs, "server: api_key_password is required when encrypted_api_key_path is set")
	}
	if c.Redis.Enabled && c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
	}

	// Notify
	for _, ev := range c.Notify.Events {
		if !validEvents[ev] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q", ev))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
