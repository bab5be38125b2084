// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config registers defaults with viper and decodes the result into
// types.Config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-resolver/internal/secrets"
	"github.com/pdiddy/paper-resolver/internal/source"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Registry names as they appear under the resolver key.
var registries = []string{"arxiv", "crossref", "pubmed", "pmc", "openalex", "publisher"}

// rateLimits holds the default sustained request rate per registry.
var rateLimits = map[string]float64{
	"arxiv":     0.34, // one request every three seconds
	"crossref":  10,
	"pubmed":    3,
	"pmc":       3,
	"openalex":  10,
	"publisher": 1,
}

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("resolver.timeout", source.DefaultTimeout.String())
	v.SetDefault("resolver.user_agent", source.DefaultUserAgent)
	v.SetDefault("resolver.max_retries", 3)
	v.SetDefault("resolver.email", "")
	v.SetDefault("resolver.ncbi_api_key", "")

	for _, name := range registries {
		prefix := "resolver." + name + "."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"base_url", "")
		v.SetDefault(prefix+"rate_limit", rateLimits[name])
		v.SetDefault(prefix+"burst", 1)
		v.SetDefault(prefix+"timeout", "0s")
		v.SetDefault(prefix+"cache_ttl", "1h")
	}

	v.SetDefault("store.path", "paper-resolver.db")
	v.SetDefault("store.max_results", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load decodes v into a Config. Durations are accepted as strings such as
// "10s" or "1h".
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Resolver.MaxRetries < 0 {
		return types.Config{}, fmt.Errorf("resolver.max_retries must not be negative, got %d", cfg.Resolver.MaxRetries)
	}
	if f := strings.ToLower(cfg.Log.Format); f != "console" && f != "json" {
		return types.Config{}, fmt.Errorf("log.format must be console or json, got %q", cfg.Log.Format)
	}
	return cfg, nil
}

// ApplySecrets fills contact and key settings the configuration left empty.
func ApplySecrets(cfg *types.Config, s map[string]string) {
	if cfg.Resolver.NCBIAPIKey == "" {
		cfg.Resolver.NCBIAPIKey = s[secrets.NCBIAPIKey]
	}
	if cfg.Resolver.Email == "" {
		cfg.Resolver.Email = s[secrets.CrossRefMailto]
	}
	if cfg.Resolver.Email == "" {
		cfg.Resolver.Email = s[secrets.OpenAlexEmail]
	}
}
