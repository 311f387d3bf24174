package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultScrapeIntervalMsec = 5000
	DefaultRequestTimeoutMsec = 10000
)

// Config is the top-level scrape-input configuration.
type Config struct {
	// Urls is the set of Prometheus exposition endpoints to scrape; one
	// independent loop runs per entry.
	Urls []string `yaml:"urls"`

	// ScrapeIntervalMsec is the minimum period, in milliseconds, between the
	// starts of consecutive scrapes of the same URL.
	ScrapeIntervalMsec int `yaml:"scrape_interval_msec"`

	// RequestTimeoutMsec bounds a single HTTP GET.
	RequestTimeoutMsec int `yaml:"request_timeout_msec"`

	// MaxBodyBytes caps a scraped response body; 0 means unlimited. Guards
	// against a misbehaving endpoint streaming an unbounded body.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	TLS  TLSConfig  `yaml:"tls"`
	Auth AuthConfig `yaml:"auth"`
}

// TLSConfig holds TLS dial options applied to every scrape target.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification. Only use
	// this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// AuthConfig is a deliberately minimal authentication stub: a single bearer
// token resolved from the environment. Real multi-scheme authentication is
// out of scope.
type AuthConfig struct {
	// Mode is one of: none | bearer.
	Mode string `yaml:"mode"`

	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env"`
}

// Token returns the bearer token resolved from the environment, or empty
// if TokenEnv is unset.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Load reads and parses the YAML config file at path. Missing optional
// fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		ScrapeIntervalMsec: DefaultScrapeIntervalMsec,
		RequestTimeoutMsec: DefaultRequestTimeoutMsec,
	}
}

// validate checks required fields and structural constraints, returning a
// *ConfigError identifying the offending field on the first violation found.
func validate(cfg *Config) error {
	if len(cfg.Urls) == 0 {
		return configErrf("urls", "at least one URL is required")
	}
	for i, u := range cfg.Urls {
		if u == "" {
			return configErrf(fmt.Sprintf("urls[%d]", i), "empty URL")
		}
	}
	if cfg.ScrapeIntervalMsec <= 0 {
		return configErrf("scrape_interval_msec", "must be positive")
	}
	if cfg.RequestTimeoutMsec <= 0 {
		return configErrf("request_timeout_msec", "must be positive")
	}
	if cfg.MaxBodyBytes < 0 {
		return configErrf("max_body_bytes", "must not be negative")
	}
	switch cfg.Auth.Mode {
	case "", "none", "bearer":
	default:
		return configErrf("auth.mode", "unknown mode %q", cfg.Auth.Mode)
	}
	return nil
}
