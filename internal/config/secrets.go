package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Wallet
	out.Wallet = cfg.Wallet
	redact(&out.Wallet.PrivateKey)
	redact(&out.Wallet.KeyPassword)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Feed.PoolIDs != nil {
		out.Feed.PoolIDs = make([]string, len(cfg.Feed.PoolIDs))
		copy(out.Feed.PoolIDs, cfg.Feed.PoolIDs)
	}
	if cfg.Venues.Assets != nil {
		out.Venues.Assets = make([]AssetEntry, len(cfg.Venues.Assets))
		copy(out.Venues.Assets, cfg.Venues.Assets)
	}

	// Copy maps so mutations to the redacted copy do not affect the original.
	if cfg.Venues.Supported != nil {
		out.Venues.Supported = make(map[string][]string, len(cfg.Venues.Supported))
		for k, v := range cfg.Venues.Supported {
			vv := make([]string, len(v))
			copy(vv, v)
			out.Venues.Supported[k] = vv
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
