package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies COLLOSEUM_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known COLLOSEUM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "COLLOSEUM_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "COLLOSEUM_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "COLLOSEUM_WALLET_KEY_PASSWORD")
	setInt(&cfg.Wallet.ChainID, "COLLOSEUM_WALLET_CHAIN_ID")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "COLLOSEUM_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "COLLOSEUM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "COLLOSEUM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "COLLOSEUM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "COLLOSEUM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "COLLOSEUM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "COLLOSEUM_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "COLLOSEUM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "COLLOSEUM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "COLLOSEUM_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "COLLOSEUM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COLLOSEUM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COLLOSEUM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "COLLOSEUM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "COLLOSEUM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "COLLOSEUM_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "COLLOSEUM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "COLLOSEUM_S3_REGION")
	setStr(&cfg.S3.Bucket, "COLLOSEUM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "COLLOSEUM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "COLLOSEUM_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "COLLOSEUM_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "COLLOSEUM_S3_FORCE_PATH_STYLE")

	// ── Relayer ──
	setStr(&cfg.Relayer.BaseURL, "COLLOSEUM_RELAYER_BASE_URL")

	// ── Feed ──
	setBool(&cfg.Feed.Enabled, "COLLOSEUM_FEED_ENABLED")
	setStr(&cfg.Feed.WsURL, "COLLOSEUM_FEED_WS_URL")
	setStringSlice(&cfg.Feed.PoolIDs, "COLLOSEUM_FEED_POOL_IDS")

	// ── Constraints ──
	setInt(&cfg.Constraints.MaxAssets, "COLLOSEUM_CONSTRAINTS_MAX_ASSETS")
	setFloat64(&cfg.Constraints.MinAllocationPercentage, "COLLOSEUM_CONSTRAINTS_MIN_ALLOCATION_PERCENTAGE")
	setFloat64(&cfg.Constraints.MaxAllocationPercentage, "COLLOSEUM_CONSTRAINTS_MAX_ALLOCATION_PERCENTAGE")
	setFloat64(&cfg.Constraints.MaxDailyChangePercentage, "COLLOSEUM_CONSTRAINTS_MAX_DAILY_CHANGE_PERCENTAGE")
	setFloat64(&cfg.Constraints.MaxTransactionValue, "COLLOSEUM_CONSTRAINTS_MAX_TRANSACTION_VALUE")
	setFloat64(&cfg.Constraints.DuplicateThresholdPct, "COLLOSEUM_CONSTRAINTS_DUPLICATE_THRESHOLD_PCT")

	// ── Executor ──
	setInt(&cfg.Executor.MaxConfirmAttempts, "COLLOSEUM_EXECUTOR_MAX_CONFIRM_ATTEMPTS")
	setDuration(&cfg.Executor.ConfirmBackoff, "COLLOSEUM_EXECUTOR_CONFIRM_BACKOFF")

	// ── Consumer ──
	setInt(&cfg.Consumer.Workers, "COLLOSEUM_CONSUMER_WORKERS")
	setDuration(&cfg.Consumer.LockTTL, "COLLOSEUM_CONSUMER_LOCK_TTL")
	setDuration(&cfg.Consumer.LockRetryDelay, "COLLOSEUM_CONSUMER_LOCK_RETRY_DELAY")

	// ── Venues ──
	setStr(&cfg.Venues.SubAccountFactory, "COLLOSEUM_VENUES_SUB_ACCOUNT_FACTORY")
	setStr(&cfg.Venues.SubAccountInitCodeHash, "COLLOSEUM_VENUES_SUB_ACCOUNT_INIT_CODE_HASH")
	setStr(&cfg.Venues.SwapRouter, "COLLOSEUM_VENUES_SWAP_ROUTER")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "COLLOSEUM_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "COLLOSEUM_ARCHIVE_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.Mode, "COLLOSEUM_MODE")
	setStr(&cfg.LogLevel, "COLLOSEUM_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
