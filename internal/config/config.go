// Package config defines the oc-bridge YAML configuration and its defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort         = 8787
	DefaultBackendURL   = "http://127.0.0.1:4096"
	DefaultBackendUser  = "opencode"
	DefaultModel        = "opencode/grok-code"
	TokenizerHeuristic  = "heuristic"
	TokenizerTiktoken   = "tiktoken"
	defaultFlushSeconds = 5
)

// Config is the root configuration document.
type Config struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	Debug         bool   `yaml:"debug" json:"debug"`
	LoggingToFile bool   `yaml:"logging-to-file" json:"logging-to-file"`
	LogDir        string `yaml:"log-dir,omitempty" json:"log-dir,omitempty"`

	// DefaultModel is the provider/model id selected at startup.
	DefaultModel string `yaml:"default-model" json:"default-model"`

	// Tokenizer picks the token estimator: "heuristic" (chars/4) or "tiktoken".
	Tokenizer string `yaml:"tokenizer" json:"tokenizer"`

	RateLimit RateLimitConfig `yaml:"rate-limit" json:"rate-limit"`
	Backend   BackendConfig   `yaml:"backend" json:"backend"`
	Usage     UsageConfig     `yaml:"usage" json:"usage"`
}

// RateLimitConfig throttles inbound /v1 traffic. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests-per-second" json:"requests-per-second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// BackendConfig describes the agent server the bridge forwards to.
type BackendConfig struct {
	URL       string `yaml:"url" json:"url"`
	Username  string `yaml:"username,omitempty" json:"username,omitempty"`
	Password  string `yaml:"password,omitempty" json:"-"`
	Workspace string `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	ProxyURL  string `yaml:"proxy-url,omitempty" json:"proxy-url,omitempty"`

	// Timeout bounds each backend call. Empty or "0" means no timeout.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	Retry   RetryConfig   `yaml:"retry" json:"retry"`
	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`
}

// RetryConfig enables retries on backend calls. MaxRetries 0 disables them.
type RetryConfig struct {
	MaxRetries int    `yaml:"max-retries" json:"max-retries"`
	BaseDelay  string `yaml:"base-delay,omitempty" json:"base-delay,omitempty"`
	MaxDelay   string `yaml:"max-delay,omitempty" json:"max-delay,omitempty"`
}

// BreakerConfig enables a circuit breaker in front of the backend.
type BreakerConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	FailureThreshold uint32 `yaml:"failure-threshold,omitempty" json:"failure-threshold,omitempty"`
	OpenTimeout      string `yaml:"open-timeout,omitempty" json:"open-timeout,omitempty"`
}

// UsageConfig enables the persisted usage history. Empty DSN disables it.
type UsageConfig struct {
	DSN           string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	BatchSize     int    `yaml:"batch-size,omitempty" json:"batch-size,omitempty"`
	FlushInterval string `yaml:"flush-interval,omitempty" json:"flush-interval,omitempty"`
	RetentionDays int    `yaml:"retention-days,omitempty" json:"retention-days,omitempty"`
}

// NewDefaultConfig returns a config populated with defaults.
func NewDefaultConfig() *Config {
	wd, _ := os.Getwd()
	return &Config{
		Host:         "127.0.0.1",
		Port:         DefaultPort,
		DefaultModel: DefaultModel,
		Tokenizer:    TokenizerHeuristic,
		Backend: BackendConfig{
			URL:       DefaultBackendURL,
			Username:  DefaultBackendUser,
			Workspace: wd,
		},
		Usage: UsageConfig{
			FlushInterval: fmt.Sprintf("%ds", defaultFlushSeconds),
			RetentionDays: 30,
		},
	}
}

// LoadConfigOptional reads the YAML file at path on top of defaults.
// When optional is true a missing file yields the defaults.
func LoadConfigOptional(path string, optional bool) (*Config, error) {
	cfg := NewDefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if c.Tokenizer == "" {
		c.Tokenizer = TokenizerHeuristic
	}
	if c.Backend.URL == "" {
		c.Backend.URL = DefaultBackendURL
	}
	if c.Backend.Username == "" {
		c.Backend.Username = DefaultBackendUser
	}
	if c.Backend.Workspace == "" {
		c.Backend.Workspace, _ = os.Getwd()
	}
}

// Validate checks field values that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url %q", c.Backend.URL)
	}
	switch c.Tokenizer {
	case TokenizerHeuristic, TokenizerTiktoken:
	default:
		return fmt.Errorf("unknown tokenizer %q (use %s or %s)", c.Tokenizer, TokenizerHeuristic, TokenizerTiktoken)
	}
	for name, v := range map[string]string{
		"backend.timeout":              c.Backend.Timeout,
		"backend.retry.base-delay":     c.Backend.Retry.BaseDelay,
		"backend.retry.max-delay":      c.Backend.Retry.MaxDelay,
		"backend.breaker.open-timeout": c.Backend.Breaker.OpenTimeout,
		"usage.flush-interval":         c.Usage.FlushInterval,
	} {
		if _, errParse := ParseDuration(v); errParse != nil {
			return fmt.Errorf("invalid %s: %w", name, errParse)
		}
	}
	if c.Usage.DSN != "" {
		if _, errDSN := ParseDSN(c.Usage.DSN); errDSN != nil {
			return errDSN
		}
	}
	return nil
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseDuration parses a Go duration string; empty and "0" are zero.
func ParseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "0" {
		return 0, nil
	}
	return time.ParseDuration(v)
}

// MustDuration is ParseDuration for values already checked by Validate.
func MustDuration(v string) time.Duration {
	d, _ := ParseDuration(v)
	return d
}
