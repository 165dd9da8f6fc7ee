// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// SystemConfig describes one external system the engine integrates with.
// Which fields matter depends on Type.
type SystemConfig struct {
	// Type selects the adapter: hris, document, bus, erp, bi.
	Type string `koanf:"type"`

	// DSN is the connection string for relational systems.
	DSN string `koanf:"dsn"`

	// URI and Database address document stores.
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`

	// Endpoint is the base URL for REST-backed systems (erp, bi).
	Endpoint string `koanf:"endpoint"`

	// Credentials for systems that need them.
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	APIKey   string `koanf:"api_key"`

	// Topics subscribed on streaming systems.
	Topics []string `koanf:"topics"`

	// Options carries adapter-specific tunables.
	Options map[string]string `koanf:"options"`
}

// Config contains process configuration. Immutable for the manager's
// lifetime once loaded.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Systems maps system names to their connector configuration.
	Systems map[string]SystemConfig `koanf:"systems"`

	// RealTimeEnabled starts one consumer per streaming-capable connector.
	RealTimeEnabled bool `koanf:"real_time_enabled"`

	// BatchInterval is how often the batch analysis loop runs.
	BatchInterval time.Duration `koanf:"batch_interval"`

	// HealthInterval is how often connectors are health-checked.
	HealthInterval time.Duration `koanf:"health_interval"`

	// CacheTTL bounds how long computed suggestions stay cached.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// ModelCacheTTL bounds how long serialized model artifacts stay cached.
	ModelCacheTTL time.Duration `koanf:"model_cache_ttl"`

	// MaxConcurrentConnections bounds concurrent connector initialization.
	MaxConcurrentConnections int `koanf:"max_concurrent_connections"`

	// RetryAttempts and RetryDelay govern connector connect retries.
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":9090",
		Systems:                  map[string]SystemConfig{},
		RealTimeEnabled:          true,
		BatchInterval:            time.Hour,
		HealthInterval:           5 * time.Minute,
		CacheTTL:                 time.Hour,
		ModelCacheTTL:            24 * time.Hour,
		MaxConcurrentConnections: 5,
		RetryAttempts:            3,
		RetryDelay:               5 * time.Second,
	}
}
