package types

import "time"

// HTTPConfig holds shared HTTP settings used by every source adapter.
type HTTPConfig struct {
	// Timeout bounds a single request, including retries and rate-limit waits.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-resolver/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SourceConfig holds per-registry settings.
type SourceConfig struct {
	// Enabled controls whether resolver units backed by this source are registered.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BaseURL overrides the registry endpoint. Empty means the built-in default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Burst is the limiter burst size (default 1).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// Timeout overrides HTTPConfig.Timeout for this source when non-zero.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`

	// CacheTTL is how long successful responses are reused. Zero disables caching.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ResolverConfig holds settings for the metadata resolution pipeline.
type ResolverConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Email is sent as the mailto parameter for polite-pool access
	// (CrossRef, OpenAlex, NCBI).
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// NCBIAPIKey raises the E-utilities rate limit when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty" mapstructure:"ncbi_api_key"`

	Arxiv     SourceConfig `json:"arxiv" yaml:"arxiv" mapstructure:"arxiv"`
	CrossRef  SourceConfig `json:"crossref" yaml:"crossref" mapstructure:"crossref"`
	PubMed    SourceConfig `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	PMC       SourceConfig `json:"pmc" yaml:"pmc" mapstructure:"pmc"`
	OpenAlex  SourceConfig `json:"openalex" yaml:"openalex" mapstructure:"openalex"`
	Publisher SourceConfig `json:"publisher" yaml:"publisher" mapstructure:"publisher"`
}

// StoreConfig holds settings for the session database.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults limits history and title search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all configuration sections.
type Config struct {
	Resolver ResolverConfig `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}
