// Package config loads the transformer's configuration using the teacher's
// Viper-backed Manager idiom (defaults -> config file -> environment),
// adapted from a single-service config tree to this transformer's
// normalizer/cache/graphdb/run-ledger/logging/concurrency sections.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/metakb-transform/internal/domain"
)

// Manager loads and validates the transformer's Config.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/metakb/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("METAKB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values. The normalizer URLs
// default to the public VICC normalizer service instances, per spec.md §6's
// documented environment variable surface (METAKB_NORMALIZER_*, METAKB_DB_*).
func (m *Manager) setDefaults() {
	viper.SetDefault("normalizer.gene.base_url", "https://normalize.cancervariants.org/gene")
	viper.SetDefault("normalizer.gene.timeout", "30s")
	viper.SetDefault("normalizer.gene.rate_limit", 10.0)
	viper.SetDefault("normalizer.gene.retry_count", 0)

	viper.SetDefault("normalizer.disease.base_url", "https://normalize.cancervariants.org/disease")
	viper.SetDefault("normalizer.disease.timeout", "30s")
	viper.SetDefault("normalizer.disease.rate_limit", 10.0)
	viper.SetDefault("normalizer.disease.retry_count", 0)

	viper.SetDefault("normalizer.therapy.base_url", "https://normalize.cancervariants.org/therapy")
	viper.SetDefault("normalizer.therapy.timeout", "30s")
	viper.SetDefault("normalizer.therapy.rate_limit", 10.0)
	viper.SetDefault("normalizer.therapy.retry_count", 0)

	viper.SetDefault("normalizer.variation.base_url", "https://normalize.cancervariants.org/variation")
	viper.SetDefault("normalizer.variation.timeout", "30s")
	viper.SetDefault("normalizer.variation.rate_limit", 5.0)
	viper.SetDefault("normalizer.variation.retry_count", 0)

	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")
	viper.SetDefault("cache.lru_size", 4096)

	viper.SetDefault("graphdb.uri", "neo4j://localhost:7687")
	viper.SetDefault("graphdb.username", "neo4j")
	viper.SetDefault("graphdb.password", "")

	viper.SetDefault("run_ledger.db_url", "postgres://localhost:5432/metakb")
	viper.SetDefault("run_ledger.db_username", "metakb")
	viper.SetDefault("run_ledger.db_password", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("concurrency.variation_concurrency", 1)
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate checks the loaded configuration for obviously unusable values
// before the transformer starts a run.
func (m *Manager) Validate() error {
	config := m.config

	if config.Normalizer.Gene.BaseURL == "" {
		return fmt.Errorf("gene normalizer base URL is required")
	}
	if config.Normalizer.Disease.BaseURL == "" {
		return fmt.Errorf("disease normalizer base URL is required")
	}
	if config.Normalizer.Therapy.BaseURL == "" {
		return fmt.Errorf("therapy normalizer base URL is required")
	}
	if config.Normalizer.Variation.BaseURL == "" {
		return fmt.Errorf("variation normalizer base URL is required")
	}

	if config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required")
	}

	if config.GraphDB.URI == "" {
		return fmt.Errorf("graph database URI is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if config.Concurrency.VariationConcurrency < 1 {
		return fmt.Errorf("variation concurrency must be >= 1")
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
