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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if COINOP_CONFIG is set
//  3. env (prefix COINOP_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("COINOP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: COINOP_ADDR, COINOP_HMAC_SECRET, ...
	// Map env keys like COINOP_HMAC_SECRET -> hmac_secret (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("COINOP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "coinop_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.HMACSecret == "":
		return fmt.Errorf("%w: hmac_secret must be set", ErrInvalidConfig)
	case c.Pepper == "":
		return fmt.Errorf("%w: pepper must be set", ErrInvalidConfig)
	case c.StoreURL == "":
		return fmt.Errorf("%w: store_url must be set", ErrInvalidConfig)
	case c.StoreServiceKey == "":
		return fmt.Errorf("%w: store_service_key must be set", ErrInvalidConfig)
	case c.RateCounter != "rest" && c.RateCounter != "redis":
		return fmt.Errorf("%w: rate_counter must be rest or redis", ErrInvalidConfig)
	case c.RateLimitPerMin < 1:
		return fmt.Errorf("%w: rate_limit_per_min must be positive", ErrInvalidConfig)
	case c.TokenTTLSecs < 1:
		return fmt.Errorf("%w: token_ttl_secs must be positive", ErrInvalidConfig)
	}
	return nil
}
