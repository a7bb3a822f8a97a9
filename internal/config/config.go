package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is loaded once at
// startup and shared by reference; components receive only the sub-config
// they need.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Safety   SafetyConfig   `mapstructure:"safety" yaml:"safety"`
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
	Approval ApprovalConfig `mapstructure:"approval" yaml:"approval"`
}

// LoggerConfig controls the zap logger bootstrap.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the chromedp-backed driver.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	Width             int           `mapstructure:"width" yaml:"width"`
	Height            int           `mapstructure:"height" yaml:"height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	StartURL          string        `mapstructure:"start_url" yaml:"start_url"`
}

// ModelConfig is the reasoning-model client configuration. Flavor selects
// the call-item contract: "browser" models emit browser_call items,
// "computer-use" models emit computer_call items.
type ModelConfig struct {
	Flavor     string        `mapstructure:"flavor" yaml:"flavor"`
	Name       string        `mapstructure:"name" yaml:"name"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	APITimeout time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	// RequestsPerMinute throttles outbound model calls. Zero disables the limiter.
	RequestsPerMinute float64 `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Truncation        string  `mapstructure:"truncation" yaml:"truncation"`
}

// SafetyConfig governs the safety gate and the post-action URL check.
type SafetyConfig struct {
	// BlockedHosts aborts the turn when the post-action location lands on one
	// of these hosts.
	BlockedHosts []string `mapstructure:"blocked_hosts" yaml:"blocked_hosts"`
	// AutoAcknowledge accepts every pending safety check without prompting.
	// Intended for unattended workflow runs only.
	AutoAcknowledge bool `mapstructure:"auto_acknowledge" yaml:"auto_acknowledge"`
}

// WorkflowConfig configures the durable orchestration layer.
type WorkflowConfig struct {
	TaskQueue     string        `mapstructure:"task_queue" yaml:"task_queue"`
	MaxDuration   time.Duration `mapstructure:"max_duration" yaml:"max_duration"`
	DatabaseURL   string        `mapstructure:"database_url" yaml:"database_url"`
	Retry         RetryConfig   `mapstructure:"retry" yaml:"retry"`
	NotifyEnabled bool          `mapstructure:"notify_enabled" yaml:"notify_enabled"`
	NotifyURL     string        `mapstructure:"notify_url" yaml:"notify_url"`
}

// RetryConfig is the declarative retry policy applied to workflow activities.
type RetryConfig struct {
	InitialInterval    time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	BackoffCoefficient float64       `mapstructure:"backoff_coefficient" yaml:"backoff_coefficient"`
	MaximumInterval    time.Duration `mapstructure:"maximum_interval" yaml:"maximum_interval"`
	MaximumAttempts    int           `mapstructure:"maximum_attempts" yaml:"maximum_attempts"`
	NonRetryableErrors []string      `mapstructure:"non_retryable_errors" yaml:"non_retryable_errors"`
}

// ApprovalConfig holds the utility directory for the approval process. Keys
// are utility codes; values describe the portal the agent must drive.
type ApprovalConfig struct {
	Utilities map[string]UtilityPortal `mapstructure:"utilities" yaml:"utilities"`
}

// UtilityPortal describes one utility's approval portal.
type UtilityPortal struct {
	Name              string   `mapstructure:"name" yaml:"name"`
	PortalURL         string   `mapstructure:"portal_url" yaml:"portal_url"`
	AuthMethod        string   `mapstructure:"auth_method" yaml:"auth_method"` // "login_password" or "digital_certificate"
	RequiredDocuments []string `mapstructure:"required_documents" yaml:"required_documents"`
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "bua")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.width", 1024)
	v.SetDefault("browser.height", 768)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.action_timeout", "30s")
	v.SetDefault("browser.post_load_wait", "1500ms")
	v.SetDefault("browser.start_url", "https://bing.com")

	// -- Model --
	v.SetDefault("model.flavor", "browser")
	v.SetDefault("model.name", "bua-v1")
	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.api_timeout", "120s")
	v.SetDefault("model.requests_per_minute", 0)
	v.SetDefault("model.truncation", "auto")

	// -- Safety --
	v.SetDefault("safety.auto_acknowledge", false)

	// -- Workflow --
	v.SetDefault("workflow.task_queue", "approval")
	v.SetDefault("workflow.max_duration", "24h")
	v.SetDefault("workflow.notify_enabled", false)
	v.SetDefault("workflow.notify_url", "")
	v.SetDefault("workflow.retry.initial_interval", "1s")
	v.SetDefault("workflow.retry.backoff_coefficient", 2.0)
	v.SetDefault("workflow.retry.maximum_interval", "10m")
	v.SetDefault("workflow.retry.maximum_attempts", 3)
	v.SetDefault("workflow.retry.non_retryable_errors", []string{"validation", "missing_key"})
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper builds and validates a configuration from a viper
// instance that has already loaded its sources.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	_ = v.BindEnv("model.api_key", "BUA_MODEL_API_KEY")
	_ = v.BindEnv("workflow.database_url", "BUA_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Unmarshal skips env-only keys that were never set in a file.
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = os.Getenv("BUA_MODEL_API_KEY")
	}
	if cfg.Workflow.DatabaseURL == "" {
		cfg.Workflow.DatabaseURL = os.Getenv("BUA_DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return fmt.Errorf("browser.width and browser.height must be positive")
	}
	switch c.Model.Flavor {
	case "browser", "computer-use":
	default:
		return fmt.Errorf("model.flavor must be %q or %q, got %q", "browser", "computer-use", c.Model.Flavor)
	}
	if err := c.Workflow.Retry.Validate(); err != nil {
		return fmt.Errorf("workflow.retry configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the retry policy settings.
func (r *RetryConfig) Validate() error {
	if r.MaximumAttempts <= 0 {
		return fmt.Errorf("maximum_attempts must be greater than 0")
	}
	if r.BackoffCoefficient < 1.0 {
		return fmt.Errorf("backoff_coefficient must be at least 1.0")
	}
	if r.InitialInterval <= 0 {
		return fmt.Errorf("initial_interval must be a positive duration")
	}
	return nil
}
