package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// supportedSystemTypes mirrors the connector factory's tag set. Validated
// here so a typo in configuration fails at startup, not mid-cycle.
var supportedSystemTypes = map[string]struct{}{
	"hris":     {},
	"document": {},
	"bus":      {},
	"erp":      {},
	"bi":       {},
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SENSEI_CONFIG is set
//  3. env (prefix SENSEI_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SENSEI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SENSEI_ADDR, SENSEI_BATCH_INTERVAL, ...
	// Keys are lowercased with the prefix stripped to match koanf tags.
	envProvider := env.Provider("SENSEI_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "sensei_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the manager cannot run with. A malformed
// config is fatal at startup; nothing else is.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BatchInterval <= 0:
		return fmt.Errorf("%w: batch_interval must be positive", ErrInvalidConfig)
	case c.HealthInterval <= 0:
		return fmt.Errorf("%w: health_interval must be positive", ErrInvalidConfig)
	case c.CacheTTL <= 0:
		return fmt.Errorf("%w: cache_ttl must be positive", ErrInvalidConfig)
	case c.ModelCacheTTL <= 0:
		return fmt.Errorf("%w: model_cache_ttl must be positive", ErrInvalidConfig)
	case c.MaxConcurrentConnections < 1:
		return fmt.Errorf("%w: max_concurrent_connections must be at least 1", ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry_attempts must not be negative", ErrInvalidConfig)
	case c.RetryDelay < 0:
		return fmt.Errorf("%w: retry_delay must not be negative", ErrInvalidConfig)
	}
	for name, sys := range c.Systems {
		if name == "" {
			return fmt.Errorf("%w: system name must not be empty", ErrInvalidConfig)
		}
		if _, ok := supportedSystemTypes[sys.Type]; !ok {
			return fmt.Errorf("%w: system %q has unsupported type %q", ErrInvalidConfig, name, sys.Type)
		}
	}
	return nil
}
