// Package config defines the top-level configuration for the reallocation
// daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by COLLOSEUM_* environment variables.
type Config struct {
	Wallet      WalletConfig      `toml:"wallet"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Relayer     RelayerConfig     `toml:"relayer"`
	Feed        FeedConfig        `toml:"feed"`
	Constraints ConstraintsConfig `toml:"constraints"`
	Executor    ExecutorConfig    `toml:"executor"`
	Consumer    ConsumerConfig    `toml:"consumer"`
	Venues      VenuesConfig      `toml:"venues"`
	Archive     ArchiveConfig     `toml:"archive"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// WalletConfig holds the executor signing key.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
	ChainID          int    `toml:"chain_id"`
}

// PostgresConfig holds PostgreSQL / Supabase connection parameters.
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RelayerConfig holds the transaction relayer endpoint.
type RelayerConfig struct {
	BaseURL string `toml:"base_url"`
}

// FeedConfig holds the venue position WebSocket parameters.
type FeedConfig struct {
	Enabled bool     `toml:"enabled"`
	WsURL   string   `toml:"ws_url"`
	PoolIDs []string `toml:"pool_ids"`
}

// ConstraintsConfig holds the plan admission limits.
type ConstraintsConfig struct {
	MaxAssets                int     `toml:"max_assets"`
	MinAllocationPercentage  float64 `toml:"min_allocation_percentage"`
	MaxAllocationPercentage  float64 `toml:"max_allocation_percentage"`
	MaxDailyChangePercentage float64 `toml:"max_daily_change_percentage"`
	MaxTransactionValue      float64 `toml:"max_transaction_value"`
	DuplicateThresholdPct    float64 `toml:"duplicate_threshold_pct"`
}

// ExecutorConfig holds transaction confirmation parameters.
type ExecutorConfig struct {
	MaxConfirmAttempts int      `toml:"max_confirm_attempts"`
	ConfirmBackoff     duration `toml:"confirm_backoff"`
}

// ConsumerConfig holds plan ingestion parameters.
type ConsumerConfig struct {
	Workers        int      `toml:"workers"`
	LockTTL        duration `toml:"lock_ttl"`
	LockRetryDelay duration `toml:"lock_retry_delay"`
}

// VenuesConfig holds the on-chain address book: sub-account derivation
// parameters, the swap router, known assets, and the supported (venue kind,
// asset) combinations.
type VenuesConfig struct {
	SubAccountFactory      string              `toml:"sub_account_factory"`
	SubAccountInitCodeHash string              `toml:"sub_account_init_code_hash"`
	SwapRouter             string              `toml:"swap_router"`
	Assets                 []AssetEntry        `toml:"assets"`
	Supported              map[string][]string `toml:"supported"`
}

// AssetEntry is one known asset in the address book.
type AssetEntry struct {
	Symbol   string `toml:"symbol"`
	Address  string `toml:"address"`
	Decimals int    `toml:"decimals"`
}

// ArchiveConfig holds report cold-storage parameters.
type ArchiveConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
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

// Defaults returns a Config populated with reasonable default values for a
// local development setup.
func Defaults() Config {
	return Config{
		Wallet: WalletConfig{
			ChainID: 1,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "realloc-reports",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Relayer: RelayerConfig{
			BaseURL: "http://localhost:8545",
		},
		Feed: FeedConfig{
			Enabled: true,
		},
		Constraints: ConstraintsConfig{
			MaxAssets:                10,
			MinAllocationPercentage:  0,
			MaxAllocationPercentage:  100,
			MaxDailyChangePercentage: 100,
			MaxTransactionValue:      1_000_000,
			DuplicateThresholdPct:    0.1,
		},
		Executor: ExecutorConfig{
			MaxConfirmAttempts: 3,
			ConfirmBackoff:     duration{2 * time.Second},
		},
		Consumer: ConsumerConfig{
			Workers:        8,
			LockTTL:        duration{5 * time.Minute},
			LockRetryDelay: duration{2 * time.Second},
		},
		Archive: ArchiveConfig{
			Enabled:  false,
			Interval: duration{1 * time.Hour},
		},
		Mode:     "run",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"run":      true,
	"validate": true,
	"migrate":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: run, validate, migrate)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet is only needed when the daemon submits bundles.
	if c.Mode == "run" {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for mode run")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Wallet.ChainID <= 0 {
			errs = append(errs, "wallet: chain_id must be positive")
		}
	}

	// Postgres
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
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 is only needed when archival or report storage runs.
	if c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty")
	}
	if c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty")
	}

	// Relayer
	if c.Mode == "run" && c.Relayer.BaseURL == "" {
		errs = append(errs, "relayer: base_url must not be empty for mode run")
	}

	// Feed
	if c.Feed.Enabled && c.Feed.WsURL == "" {
		errs = append(errs, "feed: ws_url must not be empty when feed is enabled")
	}

	// Constraints
	if c.Constraints.MaxAssets < 1 {
		errs = append(errs, "constraints: max_assets must be >= 1")
	}
	if c.Constraints.MinAllocationPercentage < 0 || c.Constraints.MinAllocationPercentage > 100 {
		errs = append(errs, "constraints: min_allocation_percentage must be within [0, 100]")
	}
	if c.Constraints.MaxAllocationPercentage <= 0 || c.Constraints.MaxAllocationPercentage > 100 {
		errs = append(errs, "constraints: max_allocation_percentage must be within (0, 100]")
	}
	if c.Constraints.MinAllocationPercentage > c.Constraints.MaxAllocationPercentage {
		errs = append(errs, "constraints: min_allocation_percentage must not exceed max_allocation_percentage")
	}
	if c.Constraints.MaxTransactionValue <= 0 {
		errs = append(errs, "constraints: max_transaction_value must be > 0")
	}
	if c.Constraints.DuplicateThresholdPct < 0 {
		errs = append(errs, "constraints: duplicate_threshold_pct must be >= 0")
	}

	// Executor
	if c.Executor.MaxConfirmAttempts < 1 {
		errs = append(errs, "executor: max_confirm_attempts must be >= 1")
	}

	// Consumer
	if c.Consumer.Workers < 1 {
		errs = append(errs, "consumer: workers must be >= 1")
	}
	if c.Consumer.LockTTL.Duration <= 0 {
		errs = append(errs, "consumer: lock_ttl must be > 0")
	}

	// Venues
	if c.Mode == "run" {
		if c.Venues.SubAccountFactory == "" {
			errs = append(errs, "venues: sub_account_factory must not be empty for mode run")
		}
		if c.Venues.SwapRouter == "" {
			errs = append(errs, "venues: swap_router must not be empty for mode run")
		}
		if len(c.Venues.Assets) == 0 {
			errs = append(errs, "venues: at least one asset must be configured for mode run")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
