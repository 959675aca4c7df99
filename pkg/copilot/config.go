package copilot

import (
	"fmt"
	"os"
	"time"

	"github.com/germanamz/copilot/pkg/custom"
	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	"gopkg.in/yaml.v3"
)

// Config is the file form of Options plus the API key.
type Config struct {
	APIKey   string           `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Provider catalog.Provider `yaml:"provider"`
	Model    catalog.Model    `yaml:"model"`
	Endpoint string           `yaml:"endpoint"`
	Timeout  string           `yaml:"timeout"` // Per-call deadline as a duration string (e.g. "30s").
	Params   map[string]any   `yaml:"params"`
	Custom   *custom.Template `yaml:"custom"`
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR are expanded before
// parsing, so API keys can stay in the environment (or a .env file).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("copilot: load config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig expands environment variables in data and decodes it.
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("copilot: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration without building a Copilot.
func (c Config) Validate() error {
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	if c.Custom != nil {
		if _, err := c.Custom.Model(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		return nil
	}

	if _, _, err := catalog.Resolve(c.Provider, c.Model); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if c.APIKey == "" {
		return fmt.Errorf("%w: api_key: %w", ErrConfig, ErrMissingAPIKey)
	}

	return nil
}

// TimeoutDuration parses Timeout. An empty value means no deadline.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout: %w", ErrConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: timeout must not be negative", ErrConfig)
	}

	return d, nil
}

// Options converts the configuration into Options for New.
func (c Config) Options() (Options, error) {
	opts := Options{
		Provider: c.Provider,
		Model:    c.Model,
		Params:   c.Params,
		Endpoint: c.Endpoint,
	}

	if c.Custom != nil {
		m, err := c.Custom.Model()
		if err != nil {
			return Options{}, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		opts.Custom = &m
	}

	return opts, nil
}

// Build validates c and returns a Copilot plus a Completer that wraps it with
// Recovery, then mws, then the configured Timeout. A nil transport selects
// the default HTTPTransport.
func (c Config) Build(transport modeladapter.Transport, mws ...Middleware) (*Copilot, Completer, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	opts, err := c.Options()
	if err != nil {
		return nil, nil, err
	}

	opts.Transport = transport

	cp, err := New(c.APIKey, opts)
	if err != nil {
		return nil, nil, err
	}

	timeout, _ := c.TimeoutDuration()

	chain := append([]Middleware{Recovery()}, mws...)
	chain = append(chain, Timeout(timeout))

	return cp, Chain(cp, chain...), nil
}
