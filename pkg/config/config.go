// Package config provides configuration structures and loading logic for codeforge.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Credential CredentialConfig `yaml:"credential"`
	Remote     RemoteConfig     `yaml:"remote"`
	Registry   RegistryConfig   `yaml:"registry"`
	Enhancer   EnhancerConfig   `yaml:"enhancer"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TelemetryConfig holds configuration for OpenTelemetry and Prometheus.
type TelemetryConfig struct {
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
	ServiceName    string `yaml:"service_name"`
	MetricsAddress string `yaml:"metrics_address"`
}

// CredentialConfig configures the account-info fetcher and the credential cache.
type CredentialConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	SessionHeader string        `yaml:"session_header"`
	SessionToken  string        `yaml:"session_token"`
	TTL           time.Duration `yaml:"ttl"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	MaxAttempts   int           `yaml:"max_attempts"`
	BackoffUnit   time.Duration `yaml:"backoff_unit"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// RemoteConfig configures the completion endpoint and its guards.
type RemoteConfig struct {
	Endpoint    string          `yaml:"endpoint"`
	Model       string          `yaml:"model"`
	MaxTokens   int             `yaml:"max_tokens"`
	Temperature float64         `yaml:"temperature"`
	Timeout     time.Duration   `yaml:"timeout"`
	Breaker     BreakerConfig   `yaml:"breaker"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// BreakerConfig configures the circuit breaker. MaxFailures 0 disables it.
type BreakerConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// RateLimitConfig configures the token bucket. RequestsPerSecond 0 disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// RegistryConfig points at the module and level catalogs.
type RegistryConfig struct {
	ModulesFile string `yaml:"modules_file"`
	LevelsFile  string `yaml:"levels_file"`
}

// EnhancerConfig configures the orchestrator's outer credential retry.
type EnhancerConfig struct {
	AcquireAttempts int           `yaml:"acquire_attempts"`
	AcquireBackoff  time.Duration `yaml:"acquire_backoff"`
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "codeforge",
		},
		Credential: CredentialConfig{
			SessionHeader: "X-Session-Token",
			TTL:           5 * time.Minute,
			FetchTimeout:  15 * time.Second,
			MaxAttempts:   3,
			BackoffUnit:   time.Second,
			SweepInterval: 60 * time.Second,
		},
		Remote: RemoteConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o",
			MaxTokens:   4096,
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: 30 * time.Second,
			},
		},
		Enhancer: EnhancerConfig{
			AcquireAttempts: 3,
			AcquireBackoff:  time.Second,
		},
	}
}

// Load reads configuration from a file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("CODEFORGE_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("CODEFORGE_LOG_PRETTY"); val == "true" {
		cfg.Logging.Pretty = true
	}

	if val := os.Getenv("CODEFORGE_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("CODEFORGE_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}
	if val := os.Getenv("CODEFORGE_METRICS_ADDR"); val != "" {
		cfg.Telemetry.MetricsAddress = val
	}

	if val := os.Getenv("CODEFORGE_CREDENTIAL_ENDPOINT"); val != "" {
		cfg.Credential.Endpoint = val
	}
	if val := os.Getenv("CODEFORGE_SESSION_TOKEN"); val != "" {
		cfg.Credential.SessionToken = val
	}
	if val := os.Getenv("CODEFORGE_CREDENTIAL_TTL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("CODEFORGE_CREDENTIAL_TTL: %w", err)
		}
		cfg.Credential.TTL = d
	}

	if val := os.Getenv("CODEFORGE_REMOTE_ENDPOINT"); val != "" {
		cfg.Remote.Endpoint = val
	}
	if val := os.Getenv("CODEFORGE_REMOTE_MODEL"); val != "" {
		cfg.Remote.Model = val
	}
	if val := os.Getenv("CODEFORGE_REMOTE_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("CODEFORGE_REMOTE_TIMEOUT: %w", err)
		}
		cfg.Remote.Timeout = d
	}
	if val := os.Getenv("CODEFORGE_REMOTE_MAX_TOKENS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("CODEFORGE_REMOTE_MAX_TOKENS: %w", err)
		}
		cfg.Remote.MaxTokens = n
	}

	if val := os.Getenv("CODEFORGE_MODULES_FILE"); val != "" {
		cfg.Registry.ModulesFile = val
	}
	if val := os.Getenv("CODEFORGE_LEVELS_FILE"); val != "" {
		cfg.Registry.LevelsFile = val
	}
	return nil
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry configuration: %w", err)
	}
	if err := c.Credential.Validate(); err != nil {
		return fmt.Errorf("credential configuration: %w", err)
	}
	if err := c.Remote.Validate(); err != nil {
		return fmt.Errorf("remote configuration: %w", err)
	}
	if err := c.Enhancer.Validate(); err != nil {
		return fmt.Errorf("enhancer configuration: %w", err)
	}
	return nil
}

// Validate performs validation of logging configuration.
func (c *LoggingConfig) Validate() error {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = "info"
	}

	level := strings.TrimSpace(strings.ToLower(c.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Level = level
		return nil
	default:
		return fmt.Errorf("invalid log level %q, supported levels: debug, info, warn, error", c.Level)
	}
}

// Validate performs validation of telemetry configuration.
func (c *TelemetryConfig) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = "codeforge"
	}
	return nil
}

// Validate performs validation of credential configuration. An empty endpoint
// is allowed and disables the remote path.
func (c *CredentialConfig) Validate() error {
	if c.Endpoint != "" {
		if err := validateURL(c.Endpoint); err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
	}
	switch {
	case c.TTL <= 0:
		return fmt.Errorf("ttl must be positive, got %s", c.TTL)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	case c.BackoffUnit < 0:
		return fmt.Errorf("backoff_unit must not be negative, got %s", c.BackoffUnit)
	case c.SweepInterval <= 0:
		return fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	}
	if strings.TrimSpace(c.SessionHeader) == "" {
		c.SessionHeader = "X-Session-Token"
	}
	return nil
}

// Validate performs validation of remote configuration.
func (c *RemoteConfig) Validate() error {
	if err := validateURL(c.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	switch {
	case strings.TrimSpace(c.Model) == "":
		return fmt.Errorf("model must not be empty")
	case c.MaxTokens < 1:
		return fmt.Errorf("max_tokens must be at least 1, got %d", c.MaxTokens)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature)
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case c.Breaker.MaxFailures < 0:
		return fmt.Errorf("breaker.max_failures must not be negative")
	case c.Breaker.MaxFailures > 0 && c.Breaker.OpenTimeout <= 0:
		return fmt.Errorf("breaker.open_timeout must be positive when the breaker is enabled")
	case c.RateLimit.RequestsPerSecond < 0:
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		c.RateLimit.Burst = 1
	}
	return nil
}

// Validate performs validation of enhancer configuration.
func (c *EnhancerConfig) Validate() error {
	if c.AcquireAttempts < 1 {
		return fmt.Errorf("acquire_attempts must be at least 1, got %d", c.AcquireAttempts)
	}
	if c.AcquireBackoff < 0 {
		return fmt.Errorf("acquire_backoff must not be negative, got %s", c.AcquireBackoff)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
