// Package config provides the configuration schema and loader for the
// ocipricer server.
package config

import "github.com/opentariff/ocipricer/internal/catalog"

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader], with environment variables
// applied on top via [ApplyEnv].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Pricing  PricingConfig  `yaml:"pricing"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the ops HTTP server listens on
	// (health, readiness, metrics). Empty disables the ops server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// HTTPMCP additionally exposes the MCP server over streamable HTTP at
	// /mcp on ListenAddr. The stdio transport always runs.
	HTTPMCP bool `yaml:"http_mcp"`
}

// UpstreamConfig holds settings for the public price list endpoint.
type UpstreamConfig struct {
	// Endpoint overrides the catalogue URL. Empty uses the built-in
	// public endpoint.
	Endpoint string `yaml:"endpoint"`

	// TimeoutSeconds bounds each catalogue HTTP request. Zero uses the
	// built-in default.
	TimeoutSeconds float64 `yaml:"timeout_seconds"`

	// Retries is the number of additional attempts after a retryable
	// failure. Nil uses the built-in default; zero disables retries.
	Retries *int `yaml:"retries"`

	// BackoffSeconds is the base delay between retries, doubling each
	// attempt. Zero uses the built-in default.
	BackoffSeconds float64 `yaml:"backoff_seconds"`
}

// PricingConfig holds defaults for the pricing operations.
type PricingConfig struct {
	// DefaultCurrency is used when a tool call omits a currency.
	DefaultCurrency string `yaml:"default_currency"`

	// AltCurrency is the reference currency attached when a price is zero
	// or missing in the requested currency. Empty disables enrichment.
	AltCurrency string `yaml:"alt_currency"`

	// MaxPages bounds catalogue paging when a tool call omits max_pages.
	MaxPages int `yaml:"max_pages"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":9035",
			LogLevel:   LogInfo,
		},
		Upstream: UpstreamConfig{
			Endpoint: catalog.DefaultEndpoint,
		},
		Pricing: PricingConfig{
			DefaultCurrency: "USD",
			MaxPages:        6,
		},
	}
}
