package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// currencyShape matches a three-letter uppercase currency code.
var currencyShape = regexp.MustCompile(`^[A-Z]{3}$`)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate]. Environment overrides are NOT applied; call [ApplyEnv] after.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variable overrides onto cfg. Unset variables
// leave the existing values untouched; malformed numeric values are reported
// as errors rather than silently ignored.
func ApplyEnv(cfg *Config) error {
	var errs []error

	if v, ok := os.LookupEnv("OCI_PRICING_DEFAULT_CCY"); ok {
		cfg.Pricing.DefaultCurrency = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv("OCI_PRICING_ALT_CCY"); ok {
		cfg.Pricing.AltCurrency = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv("OCI_PRICING_MAX_PAGES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("config: OCI_PRICING_MAX_PAGES %q: %w", v, err))
		} else {
			cfg.Pricing.MaxPages = n
		}
	}
	if v, ok := os.LookupEnv("OCI_PRICING_HTTP_TIMEOUT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: OCI_PRICING_HTTP_TIMEOUT %q: %w", v, err))
		} else {
			cfg.Upstream.TimeoutSeconds = f
		}
	}
	if v, ok := os.LookupEnv("OCI_PRICING_RETRIES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("config: OCI_PRICING_RETRIES %q: %w", v, err))
		} else {
			cfg.Upstream.Retries = &n
		}
	}
	if v, ok := os.LookupEnv("OCI_PRICING_BACKOFF"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: OCI_PRICING_BACKOFF %q: %w", v, err))
		} else {
			cfg.Upstream.BackoffSeconds = f
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return Validate(cfg)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.HTTPMCP && cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.http_mcp requires server.listen_addr"))
	}

	if cfg.Upstream.Endpoint != "" && !strings.HasPrefix(cfg.Upstream.Endpoint, "http") {
		errs = append(errs, fmt.Errorf("upstream.endpoint %q must be an absolute http(s) URL", cfg.Upstream.Endpoint))
	}
	if cfg.Upstream.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("upstream.timeout_seconds %.2f must not be negative", cfg.Upstream.TimeoutSeconds))
	}
	if cfg.Upstream.Retries != nil && *cfg.Upstream.Retries < 0 {
		errs = append(errs, fmt.Errorf("upstream.retries %d must not be negative", *cfg.Upstream.Retries))
	}
	if cfg.Upstream.BackoffSeconds < 0 {
		errs = append(errs, fmt.Errorf("upstream.backoff_seconds %.2f must not be negative", cfg.Upstream.BackoffSeconds))
	}

	if c := cfg.Pricing.DefaultCurrency; c != "" && !currencyShape.MatchString(c) {
		errs = append(errs, fmt.Errorf("pricing.default_currency %q is not a three-letter currency code", c))
	}
	if c := cfg.Pricing.AltCurrency; c != "" && !currencyShape.MatchString(c) {
		errs = append(errs, fmt.Errorf("pricing.alt_currency %q is not a three-letter currency code", c))
	}
	if cfg.Pricing.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("pricing.max_pages %d must not be negative", cfg.Pricing.MaxPages))
	}

	return errors.Join(errs...)
}
