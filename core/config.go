package core

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration for the storefront application.
// Defaults work out of the box for local development; environment
// variables and functional options override them.
type Config struct {
	Name string `yaml:"name"`

	AI          AIConfig          `yaml:"ai"`
	Redis       RedisConfig       `yaml:"redis"`
	Resilience  ResilienceConfig  `yaml:"resilience"`
	Logging     LoggingConfig     `yaml:"logging"`
	Development DevelopmentConfig `yaml:"development"`
	Simulation  SimulationConfig  `yaml:"simulation"`
}

// AIConfig configures the hosted generative API client
type AIConfig struct {
	BaseURL    string        `yaml:"base_url" env:"OLPRINT_AI_BASE_URL"`
	APIKey     string        `yaml:"api_key" env:"OLPRINT_AI_API_KEY"`
	Model      string        `yaml:"model" env:"OLPRINT_AI_MODEL"`
	ImageModel string        `yaml:"image_model" env:"OLPRINT_AI_IMAGE_MODEL"`
	VideoModel string        `yaml:"video_model" env:"OLPRINT_AI_VIDEO_MODEL"`
	Timeout    time.Duration `yaml:"timeout" env:"OLPRINT_AI_TIMEOUT"`
}

// RedisConfig configures the optional durable preference store
type RedisConfig struct {
	URL string `yaml:"url" env:"OLPRINT_REDIS_URL"`
}

// ResilienceConfig contains fault tolerance settings for calls to the
// hosted API.
type ResilienceConfig struct {
	Retry          RetryConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RetryConfig defines retry settings with exponential backoff.
// Formula: interval = min(InitialInterval * (Multiplier ^ attempt), MaxInterval)
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" env:"OLPRINT_RETRY_MAX_ATTEMPTS"`
	InitialInterval time.Duration `yaml:"initial_interval" env:"OLPRINT_RETRY_INITIAL_INTERVAL"`
	MaxInterval     time.Duration `yaml:"max_interval" env:"OLPRINT_RETRY_MAX_INTERVAL"`
	Multiplier      float64       `yaml:"multiplier" env:"OLPRINT_RETRY_MULTIPLIER"`
}

// CircuitBreakerConfig defines circuit breaker settings. The breaker fails
// fast after Threshold consecutive failures and allows HalfOpenRequests
// probes after Timeout.
type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled" env:"OLPRINT_CB_ENABLED"`
	Threshold        int           `yaml:"threshold" env:"OLPRINT_CB_THRESHOLD"`
	Timeout          time.Duration `yaml:"timeout" env:"OLPRINT_CB_TIMEOUT"`
	HalfOpenRequests int           `yaml:"half_open_requests" env:"OLPRINT_CB_HALF_OPEN"`
}

// LoggingConfig contains logging configuration.
// Supports structured (JSON) and human-readable (text) formats.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"OLPRINT_LOG_LEVEL"`
	Format     string `yaml:"format" env:"OLPRINT_LOG_FORMAT"`
	Output     string `yaml:"output" env:"OLPRINT_LOG_OUTPUT"`
	TimeFormat string `yaml:"time_format" env:"OLPRINT_LOG_TIME_FORMAT"`
}

// DevelopmentConfig contains settings for local development and testing
type DevelopmentConfig struct {
	Enabled      bool `yaml:"enabled" env:"OLPRINT_DEV_MODE"`
	DebugLogging bool `yaml:"debug_logging" env:"OLPRINT_DEBUG"`
	PrettyLogs   bool `yaml:"pretty_logs" env:"OLPRINT_PRETTY_LOGS"`
}

// SimulationConfig drives the scripted order-status demo
type SimulationConfig struct {
	TargetOrderID    string        `yaml:"target_order_id"`
	StatusDelay      time.Duration `yaml:"status_delay" env:"OLPRINT_SIM_STATUS_DELAY"`
	ToastAutoDismiss time.Duration `yaml:"toast_auto_dismiss" env:"OLPRINT_SIM_TOAST_DISMISS"`
}

// Option is a functional option for configuring the application.
// Options are applied in order and can return an error if invalid.
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Name: "olprint-storefront",
		AI: AIConfig{
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			Model:      "gemini-2.5-flash",
			ImageModel: "imagen-3.0-generate-002",
			VideoModel: "veo-2.0-generate-001",
			Timeout:    30 * time.Second,
		},
		Resilience: ResilienceConfig{
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: time.Second,
				MaxInterval:     30 * time.Second,
				Multiplier:      2.0,
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				Threshold:        5,
				Timeout:          30 * time.Second,
				HalfOpenRequests: 3,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		},
		Simulation: SimulationConfig{
			TargetOrderID:    "OL-1002-Z",
			StatusDelay:      8 * time.Second,
			ToastAutoDismiss: 6 * time.Second,
		},
	}
}

// NewConfig builds a configuration from defaults, environment variables,
// and the given options, in that order of precedence (options win).
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	cfg.applyEnvironment()

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidConfiguration)
	}
	if c.AI.BaseURL == "" {
		return fmt.Errorf("%w: ai.base_url must not be empty", ErrInvalidConfiguration)
	}
	if c.Resilience.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be >= 1", ErrInvalidConfiguration)
	}
	if c.Resilience.Retry.Multiplier < 1 {
		return fmt.Errorf("%w: retry.multiplier must be >= 1", ErrInvalidConfiguration)
	}
	if c.Simulation.StatusDelay < 0 || c.Simulation.ToastAutoDismiss < 0 {
		return fmt.Errorf("%w: simulation delays must not be negative", ErrInvalidConfiguration)
	}
	return nil
}

func (c *Config) applyEnvironment() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(dst *bool, key string) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString(&c.AI.BaseURL, "OLPRINT_AI_BASE_URL")
	setString(&c.AI.APIKey, "OLPRINT_AI_API_KEY")
	setString(&c.AI.Model, "OLPRINT_AI_MODEL")
	setString(&c.AI.ImageModel, "OLPRINT_AI_IMAGE_MODEL")
	setString(&c.AI.VideoModel, "OLPRINT_AI_VIDEO_MODEL")
	setDuration(&c.AI.Timeout, "OLPRINT_AI_TIMEOUT")

	setString(&c.Redis.URL, "OLPRINT_REDIS_URL")

	setInt(&c.Resilience.Retry.MaxAttempts, "OLPRINT_RETRY_MAX_ATTEMPTS")
	setDuration(&c.Resilience.Retry.InitialInterval, "OLPRINT_RETRY_INITIAL_INTERVAL")
	setDuration(&c.Resilience.Retry.MaxInterval, "OLPRINT_RETRY_MAX_INTERVAL")

	setBool(&c.Resilience.CircuitBreaker.Enabled, "OLPRINT_CB_ENABLED")
	setInt(&c.Resilience.CircuitBreaker.Threshold, "OLPRINT_CB_THRESHOLD")
	setDuration(&c.Resilience.CircuitBreaker.Timeout, "OLPRINT_CB_TIMEOUT")
	setInt(&c.Resilience.CircuitBreaker.HalfOpenRequests, "OLPRINT_CB_HALF_OPEN")

	setString(&c.Logging.Level, "OLPRINT_LOG_LEVEL")
	setString(&c.Logging.Format, "OLPRINT_LOG_FORMAT")
	setString(&c.Logging.Output, "OLPRINT_LOG_OUTPUT")

	setBool(&c.Development.Enabled, "OLPRINT_DEV_MODE")
	setBool(&c.Development.DebugLogging, "OLPRINT_DEBUG")
	setBool(&c.Development.PrettyLogs, "OLPRINT_PRETTY_LOGS")

	setDuration(&c.Simulation.StatusDelay, "OLPRINT_SIM_STATUS_DELAY")
	setDuration(&c.Simulation.ToastAutoDismiss, "OLPRINT_SIM_TOAST_DISMISS")
}

// Functional options

// WithName sets the application name used in logs and telemetry
func WithName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidConfiguration)
		}
		c.Name = name
		return nil
	}
}

// WithAPIKey sets the hosted API key
func WithAPIKey(key string) Option {
	return func(c *Config) error {
		c.AI.APIKey = key
		return nil
	}
}

// WithModel sets the chat model identifier
func WithModel(model string) Option {
	return func(c *Config) error {
		c.AI.Model = model
		return nil
	}
}

// WithRedisURL sets the Redis connection URL for the durable store
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Redis.URL = url
		return nil
	}
}

// WithSimulationDelays overrides the scripted demo timings. Used by tests
// to avoid waiting for the production defaults.
func WithSimulationDelays(statusDelay, toastDismiss time.Duration) Option {
	return func(c *Config) error {
		if statusDelay < 0 || toastDismiss < 0 {
			return fmt.Errorf("%w: simulation delays must not be negative", ErrInvalidConfiguration)
		}
		c.Simulation.StatusDelay = statusDelay
		c.Simulation.ToastAutoDismiss = toastDismiss
		return nil
	}
}

// WithConfigFile overlays settings from a YAML file. Values present in the
// file replace the current ones; absent values are left untouched.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
		return nil
	}
}
