package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/ABSFinance/colloseum-monorepo/internal/blob/s3"
	"github.com/ABSFinance/colloseum-monorepo/internal/cache/redis"
	"github.com/ABSFinance/colloseum-monorepo/internal/config"
	"github.com/ABSFinance/colloseum-monorepo/internal/crypto"
	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
	"github.com/ABSFinance/colloseum-monorepo/internal/ingest"
	"github.com/ABSFinance/colloseum-monorepo/internal/platform/relayer"
	"github.com/ABSFinance/colloseum-monorepo/internal/store/postgres"
	"github.com/ABSFinance/colloseum-monorepo/internal/venue"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	AllocationStore domain.AllocationStore
	VaultStore      domain.VaultStore
	PoolMetaStore   domain.PoolMetaStore
	AuditStore      domain.AuditStore

	// Caches and bus
	PositionCache domain.PositionCache
	LockManager   domain.LockManager
	SignalBus     domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Transport
	Relayer *relayer.Client

	// Venue address book
	AddressBook *venue.AddressBook
}

// needsS3 returns true for modes that write report objects.
func needsS3(mode string) bool {
	return mode == "run"
}

// needsWallet returns true for modes that submit signed bundles.
func needsWallet(mode string) bool {
	return mode == "run"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations || cfg.Mode == "migrate" {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.AllocationStore = postgres.NewAllocationStore(pool)
	deps.VaultStore = postgres.NewVaultStore(pool)
	deps.PoolMetaStore = postgres.NewPoolMetaStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.PositionCache = redis.NewPositionCache(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewPlanBus(redisClient)

	// --- S3 blob storage ---
	if needsS3(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		if cfg.Archive.Enabled {
			deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.SignalBus, deps.AuditStore, ingest.ReportStream)
		}
	}

	// --- Relayer ---
	var signer *crypto.BundleSigner
	if needsWallet(cfg.Mode) {
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
		}
		signer, err = crypto.NewBundleSigner(key, cfg.Wallet.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
	}
	deps.Relayer = relayer.New(cfg.Relayer.BaseURL, signer)

	// --- Venue address book ---
	if cfg.Mode == "run" {
		book, err := venue.NewAddressBook(addressBookConfig(cfg))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: address book: %w", err)
		}
		deps.AddressBook = book
	}

	return deps, cleanup, nil
}

// addressBookConfig converts the TOML venues section into the venue
// package's raw config form.
func addressBookConfig(cfg *config.Config) venue.AddressBookConfig {
	assets := make([]venue.AssetConfig, 0, len(cfg.Venues.Assets))
	for _, a := range cfg.Venues.Assets {
		assets = append(assets, venue.AssetConfig{
			Symbol:   a.Symbol,
			Address:  a.Address,
			Decimals: a.Decimals,
		})
	}
	return venue.AddressBookConfig{
		SubAccountFactory:      cfg.Venues.SubAccountFactory,
		SubAccountInitCodeHash: cfg.Venues.SubAccountInitCodeHash,
		SwapRouter:             cfg.Venues.SwapRouter,
		Assets:                 assets,
		Supported:              cfg.Venues.Supported,
	}
}
