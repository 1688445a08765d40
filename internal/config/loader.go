package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LOTTO_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LOTTO_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Storage ──
	setStr(&cfg.Storage.Driver, "LOTTO_STORAGE_DRIVER")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LOTTO_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "LOTTO_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LOTTO_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LOTTO_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LOTTO_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LOTTO_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LOTTO_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LOTTO_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LOTTO_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LOTTO_POSTGRES_RUN_MIGRATIONS")

	// ── SQLite ──
	setStr(&cfg.SQLite.Path, "LOTTO_SQLITE_PATH")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "LOTTO_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "LOTTO_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LOTTO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LOTTO_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LOTTO_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LOTTO_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LOTTO_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.CacheTTL, "LOTTO_REDIS_CACHE_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "LOTTO_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "LOTTO_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LOTTO_S3_REGION")
	setStr(&cfg.S3.Bucket, "LOTTO_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LOTTO_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LOTTO_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LOTTO_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LOTTO_S3_FORCE_PATH_STYLE")

	// ── Analysis ──
	setInt(&cfg.Analysis.Period, "LOTTO_ANALYSIS_PERIOD")
	setStr(&cfg.Analysis.Source, "LOTTO_ANALYSIS_SOURCE")
	setStr(&cfg.Analysis.Strategy, "LOTTO_ANALYSIS_STRATEGY")
	setInt(&cfg.Analysis.Sets, "LOTTO_ANALYSIS_SETS")
	setStr(&cfg.Analysis.CountMode, "LOTTO_ANALYSIS_COUNT_MODE")
	setInt(&cfg.Analysis.MaxPeriod, "LOTTO_ANALYSIS_MAX_PERIOD")
	setInt(&cfg.Analysis.MaxSets, "LOTTO_ANALYSIS_MAX_SETS")

	// ── Generator ──
	setInt(&cfg.Generator.BaseRound, "LOTTO_GENERATOR_BASE_ROUND")
	setUint64(&cfg.Generator.Seed, "LOTTO_GENERATOR_SEED")
	setBool(&cfg.Generator.Biased, "LOTTO_GENERATOR_BIASED")

	// ── Collector ──
	setBool(&cfg.Collector.Enabled, "LOTTO_COLLECTOR_ENABLED")
	setStr(&cfg.Collector.BaseURL, "LOTTO_COLLECTOR_BASE_URL")
	setStr(&cfg.Collector.Schedule, "LOTTO_COLLECTOR_SCHEDULE")
	setInt(&cfg.Collector.StartRound, "LOTTO_COLLECTOR_START_ROUND")
	setInt(&cfg.Collector.MaxRounds, "LOTTO_COLLECTOR_MAX_ROUNDS")
	setDuration(&cfg.Collector.Timeout, "LOTTO_COLLECTOR_TIMEOUT")
	setDuration(&cfg.Collector.LockTTL, "LOTTO_COLLECTOR_LOCK_TTL")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "LOTTO_ARCHIVE_ENABLED")
	setStr(&cfg.Archive.Schedule, "LOTTO_ARCHIVE_SCHEDULE")
	setInt(&cfg.Archive.RetentionDays, "LOTTO_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setInt(&cfg.Server.Port, "LOTTO_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "LOTTO_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "LOTTO_SERVER_API_KEY")
	setStr(&cfg.Server.EncryptedAPIKeyPath, "LOTTO_SERVER_ENCRYPTED_API_KEY_PATH")
	setStr(&cfg.Server.APIKeyPassword, "LOTTO_SERVER_API_KEY_PASSWORD")
	setInt(&cfg.Server.RateLimit, "LOTTO_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "LOTTO_SERVER_RATE_WINDOW")
	setBool(&cfg.Server.TrustProxy, "LOTTO_SERVER_TRUST_PROXY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LOTTO_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LOTTO_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LOTTO_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LOTTO_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LOTTO_MODE")
	setStr(&cfg.LogLevel, "LOTTO_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
