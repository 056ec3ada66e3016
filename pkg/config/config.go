// Package config loads the run configuration: a YAML file decoded over
// built-in defaults, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/autologin/pkg/browser"
	"github.com/entrhq/autologin/pkg/logging"
	"github.com/entrhq/autologin/pkg/login"
	"github.com/entrhq/autologin/pkg/notify"
	"github.com/entrhq/autologin/pkg/report"
)

// Environment variables read by ApplyEnv.
const (
	EnvAccounts = "LOGIN_ACCOUNTS"
	EnvBotToken = "TG_BOT_TOKEN"
	EnvChatID   = "TG_CHAT_ID"
	EnvLoginURL = "LOGIN_URL"
	EnvHeadless = "LOGIN_HEADLESS"
)

// Config represents the configuration of one autologin run
type Config struct {
	// Site profile the workflow is tuned to
	Profile login.SiteProfile `yaml:"profile" json:"profile"`

	// Accounts is the raw email:password list. It is only read from the
	// environment or the command line, never from a file.
	Accounts string `yaml:"-" json:"-"`

	// Identities rotated across retries
	Identities browser.IdentityPool `yaml:"identities" json:"identities"`

	// Notification channel
	Notify notify.Config `yaml:"notify" json:"notify"`

	// Browser launch settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Concurrency caps the number of accounts in flight (0 means unlimited)
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// DiagnosticsDir is where failure screenshots are written before delivery
	DiagnosticsDir string `yaml:"diagnostics_dir" json:"diagnostics_dir"`

	// Artifacts configuration
	Artifacts report.ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig defines how browsers are launched
type BrowserConfig struct {
	Headless       bool             `yaml:"headless" json:"headless"`
	Args           []string         `yaml:"args" json:"args"`
	ExecutablePath string           `yaml:"executable_path" json:"executable_path"`
	Install        bool             `yaml:"install" json:"install"`
	Viewport       browser.Viewport `yaml:"viewport" json:"viewport"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// File enables the rotated debug log file
	File bool `yaml:"file" json:"file"`

	// Dir overrides the log directory
	Dir string `yaml:"dir" json:"dir"`

	MaxSizeMB  int `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int `yaml:"max_backups" json:"max_backups"`
}

// DefaultConfig returns the configuration for the Wispbyte panel.
func DefaultConfig() *Config {
	return &Config{
		Profile:    login.WispbyteProfile(),
		Identities: browser.DefaultIdentities,
		Notify: notify.Config{
			Timeout:       30 * time.Second,
			RatePerSecond: 1,
		},
		Browser: BrowserConfig{
			Headless: true,
			Args:     browser.DefaultArgs,
			Viewport: browser.Viewport{
				Width:  browser.DefaultViewportWidth,
				Height: browser.DefaultViewportHeight,
			},
		},
		Artifacts: report.ArtifactConfig{
			Enabled:   false,
			OutputDir: ".autologin/artifacts",
		},
		Logging: LoggingConfig{
			Verbosity:  "normal",
			File:       true,
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadFile loads configuration from a YAML file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvAccounts); v != "" {
		c.Accounts = v
	}
	if v := getenv(EnvBotToken); v != "" {
		c.Notify.BotToken = v
	}
	if v := getenv(EnvChatID); v != "" {
		c.Notify.ChatID = v
	}
	if v := getenv(EnvLoginURL); v != "" {
		c.Profile.LoginURL = v
	}
	if v := getenv(EnvHeadless); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvHeadless, v, err)
		}
		c.Browser.Headless = headless
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}

	if c.Browser.Viewport.Width < 0 || c.Browser.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	if c.Notify.Timeout < 0 {
		return fmt.Errorf("notify timeout cannot be negative")
	}

	if c.Notify.RatePerSecond < 0 {
		return fmt.Errorf("notify rate_per_second cannot be negative")
	}

	if c.Artifacts.Enabled && strings.TrimSpace(c.Artifacts.OutputDir) == "" {
		return fmt.Errorf("artifacts output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// LaunchOptions converts the browser section for the launcher.
func (c *Config) LaunchOptions() browser.LaunchOptions {
	viewport := c.Browser.Viewport
	opts := browser.LaunchOptions{
		Headless:       c.Browser.Headless,
		Args:           c.Browser.Args,
		ExecutablePath: c.Browser.ExecutablePath,
		Install:        c.Browser.Install,
		Timeout:        browser.Milliseconds(c.Profile.Timeouts.Default),
	}
	if viewport.Width > 0 && viewport.Height > 0 {
		opts.Viewport = &viewport
	}
	return opts
}

// LogLevel returns the console level for the configured verbosity.
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLogLevel(c.Logging.Verbosity)
}

// FileOptions returns the options for the rotated log file.
func (c *Config) FileOptions() logging.FileOptions {
	return logging.FileOptions{
		Dir:        c.Logging.Dir,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	}
}
