package domain

import "time"

// Config is the complete, explicit configuration passed into the transformer
// constructor. Replacing process-wide global state (environment variables
// read ad hoc, a package-level logger) with a single value threaded through
// the call graph is a deliberate redesign of the source system's approach —
// see SPEC_FULL.md Design Notes, "Global configuration."
type Config struct {
	Normalizer  NormalizerConfig  `mapstructure:"normalizer"`
	Cache       CacheConfig       `mapstructure:"cache"`
	GraphDB     GraphDBConfig     `mapstructure:"graphdb"`
	RunLedger   RunLedgerConfig   `mapstructure:"run_ledger"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
}

// NormalizerServiceConfig is the per-concept normalizer client configuration.
type NormalizerServiceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	RetryCount int           `mapstructure:"retry_count"`
}

// NormalizerConfig groups the four concept-normalizer clients the
// Normalizer Gateway (C1) wraps.
type NormalizerConfig struct {
	Gene      NormalizerServiceConfig `mapstructure:"gene"`
	Disease   NormalizerServiceConfig `mapstructure:"disease"`
	Therapy   NormalizerServiceConfig `mapstructure:"therapy"`
	Variation NormalizerServiceConfig `mapstructure:"variation"`
}

// CacheConfig configures the shared Redis-backed normalizer response cache
// and its in-process LRU front.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	LRUSize     int           `mapstructure:"lru_size"`
}

// GraphDBConfig configures the Neo4j graph loader writer (C9).
type GraphDBConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// RunLedgerConfig configures the Postgres-backed run ledger (C10), a
// supplemental addition with no CLI flag of its own in spec.md §6 — set via
// config file or its own METAKB_RUN_LEDGER_* environment variables.
type RunLedgerConfig struct {
	DBURL      string `mapstructure:"db_url"`
	DBUsername string `mapstructure:"db_username"`
	DBPassword string `mapstructure:"db_password"`
}

// LoggingConfig configures the logrus logger threaded through the transformer.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConcurrencyConfig bounds the variation-normalization worker pool (§5).
type ConcurrencyConfig struct {
	VariationConcurrency int64 `mapstructure:"variation_concurrency"`
}
