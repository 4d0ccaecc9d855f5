// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Generate GenerateConfig `mapstructure:"generate" yaml:"generate"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// Storage backends for the picker state.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// HistoryConfig controls where the last selector, the history and the
// activation flag are kept.
type HistoryConfig struct {
	Capacity int    `mapstructure:"capacity" yaml:"capacity"`
	Backend  string `mapstructure:"backend" yaml:"backend"`
	Path     string `mapstructure:"path" yaml:"path"`
	// Journal is the JSON-lines change log followed by `history watch`.
	// Empty disables journaling.
	Journal string `mapstructure:"journal" yaml:"journal"`
}

// DatabaseConfig holds the database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// BrowserConfig holds settings for the Chrome instance used by `pick` and `--render`.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Debug             bool           `mapstructure:"debug" yaml:"debug"`
}

// FetchConfig tunes how `generate` downloads pages.
type FetchConfig struct {
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	UserAgent    string            `mapstructure:"user_agent" yaml:"user_agent"`
	Headers      map[string]string `mapstructure:"headers" yaml:"headers"`
	RateLimit    float64           `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst        int               `mapstructure:"burst" yaml:"burst"`
	MaxBodyBytes int64             `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// GenerateConfig holds defaults for the `generate` command.
type GenerateConfig struct {
	Concurrency int  `mapstructure:"concurrency" yaml:"concurrency"`
	Verify      bool `mapstructure:"verify" yaml:"verify"`
}

// DefaultHistoryCapacity is the number of selectors kept when none is configured.
const DefaultHistoryCapacity = 10

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "selector-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- History --
	v.SetDefault("history.capacity", DefaultHistoryCapacity)
	v.SetDefault("history.backend", BackendFile)
	v.SetDefault("history.path", "~/.selector-cli/state.json")
	v.SetDefault("history.journal", "~/.selector-cli/events.jsonl")

	// -- Database --
	v.SetDefault("database.url", "")

	// -- Browser --
	// Picking needs a visible window; --render overrides this per call.
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 800})
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.debug", false)

	// -- Fetch --
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", "selector-cli")
	v.SetDefault("fetch.headers", map[string]string{})
	v.SetDefault("fetch.rate_limit", 5.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.max_body_bytes", 10<<20)

	// -- Generate --
	v.SetDefault("generate.concurrency", 4)
	v.SetDefault("generate.verify", false)
}

// Configure points v at the config file and environment. An empty cfgFile
// searches for ./config.yaml.
func Configure(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SELECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The DSN carries credentials and is normally supplied through the environment.
	_ = v.BindEnv("database.url", "SELECTOR_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.History.Backend == BackendPostgres && cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history configuration invalid: %w", err)
	}
	if c.History.Backend == BackendPostgres && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when history.backend is %q", BackendPostgres)
	}
	if c.Generate.Concurrency <= 0 {
		return fmt.Errorf("generate.concurrency must be a positive integer")
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit must not be negative")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be a positive integer")
	}
	return nil
}

// Validate checks the HistoryConfig settings.
func (h *HistoryConfig) Validate() error {
	if h.Capacity <= 0 {
		return fmt.Errorf("capacity must be a positive integer")
	}
	switch h.Backend {
	case BackendFile:
		if h.Path == "" {
			return fmt.Errorf("path is required for the %q backend", BackendFile)
		}
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", h.Backend)
	}
	return nil
}
