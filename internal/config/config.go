package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the status dashboard.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	PagerDuty PagerDutyConfig `yaml:"pagerduty"`
	Source    SourceConfig    `yaml:"source"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// PagerDutyConfig holds the account the dashboard links to.
type PagerDutyConfig struct {
	Subdomain string `yaml:"subdomain"`
}

// SourceConfig points at the raw service records the dashboard is built from.
type SourceConfig struct {
	Path            string        `yaml:"path"`
	Watch           bool          `yaml:"watch"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MIRADOR_STATUS_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints on the configuration.
func (c Config) Validate() error {
	if err := c.PagerDuty.Validate(); err != nil {
		return err
	}
	if c.Source.RefreshInterval < 0 {
		return fmt.Errorf("source.refreshInterval must not be negative")
	}
	if c.Server.GracefulTimeout < 0 {
		return fmt.Errorf("server.gracefulTimeout must not be negative")
	}
	return nil
}

// Validate checks that the subdomain is set and is a single DNS label.
func (p PagerDutyConfig) Validate() error {
	if p.Subdomain == "" {
		return fmt.Errorf("pagerduty.subdomain is required")
	}
	if strings.ContainsAny(p.Subdomain, "/.: ") {
		return fmt.Errorf("pagerduty.subdomain %q must be a bare subdomain", p.Subdomain)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Source: SourceConfig{
			Path:            "services.json",
			Watch:           true,
			RefreshInterval: time.Minute,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MIRADOR_STATUS_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("MIRADOR_STATUS_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("MIRADOR_STATUS_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("MIRADOR_STATUS_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("MIRADOR_STATUS_PAGERDUTY_SUBDOMAIN"); v != "" {
		cfg.PagerDuty.Subdomain = v
	}
	if v := os.Getenv("MIRADOR_STATUS_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("MIRADOR_STATUS_SOURCE_WATCH"); v != "" {
		cfg.Source.Watch = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("MIRADOR_STATUS_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Source.RefreshInterval = d
		}
	}
	if v := os.Getenv("MIRADOR_STATUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MIRADOR_STATUS_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
}
