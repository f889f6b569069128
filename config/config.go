// Package config provides configuration loading, validation, and
// persistence for reconfiguration operations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Budget   BudgetConfig    `yaml:"budget"`
	Plan     *PlanConfig     `yaml:"plan,omitempty"`
	AdminAPI *AdminAPIConfig `yaml:"admin_api,omitempty"`
	Database DatabaseConfig  `yaml:"database"`
	Hooks    HooksConfig     `yaml:"hooks"`
	Logging  LoggingConfig   `yaml:"logging"`
	Metrics  MetricsConfig   `yaml:"metrics"`

	DefaultModel string `yaml:"default_model"`
	DataDir      string `yaml:"data_dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// BudgetConfig holds spending limits and alert thresholds.
// MonthlyLimitUSD nil disables monthly tracking entirely.
type BudgetConfig struct {
	DailyLimitUSD        float64  `yaml:"daily_limit_usd"`
	MonthlyLimitUSD      *float64 `yaml:"monthly_limit_usd"`
	WarningThresholdPct  float64  `yaml:"warning_threshold_pct"`
	CriticalThresholdPct float64  `yaml:"critical_threshold_pct"`
}

// PlanConfig describes the subscription plan, if any.
type PlanConfig struct {
	Type                string  `yaml:"type"`
	MonthlyAllowanceUSD float64 `yaml:"monthly_allowance_usd"`
	Seats               int     `yaml:"seats,omitempty"`
	CustomLabel         string  `yaml:"custom_label,omitempty"`
}

// AdminAPIConfig configures the remote authoritative usage-report source.
// Absent means budget queries run on local figures only.
type AdminAPIConfig struct {
	APIKey         string        `yaml:"api_key"`
	OrganizationID string        `yaml:"organization_id,omitempty"`
	BaseURL        string        `yaml:"base_url,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
}

// DatabaseConfig configures the SQLite ledger store.
type DatabaseConfig struct {
	Path string `yaml:"path"` // default: <data_dir>/usage.db
}

// HooksConfig configures the pending hook-event spool.
type HooksConfig struct {
	SpoolPath string `yaml:"spool_path"` // default: <data_dir>/pending-hooks.jsonl
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// Load reads configuration from a YAML file, applying defaults and
// validating. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration back to a YAML file, creating parent
// directories as needed. Used by the configure-budget operation.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8600
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Budget.DailyLimitUSD == 0 {
		cfg.Budget.DailyLimitUSD = 10.0
	}
	if cfg.Budget.WarningThresholdPct == 0 {
		cfg.Budget.WarningThresholdPct = 80
	}
	if cfg.Budget.CriticalThresholdPct == 0 {
		cfg.Budget.CriticalThresholdPct = 95
	}

	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-5-20250514"
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.DataDir = filepath.Join(home, ".config", "tokenmeter", "data")
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.DataDir, "usage.db")
	}
	if cfg.Hooks.SpoolPath == "" {
		cfg.Hooks.SpoolPath = filepath.Join(cfg.DataDir, "pending-hooks.jsonl")
	}

	if cfg.AdminAPI != nil && cfg.AdminAPI.Timeout == 0 {
		cfg.AdminAPI.Timeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate rejects malformed configuration at the boundary; the core
// engine assumes validated inputs.
func Validate(cfg *Config) error {
	if cfg.Budget.DailyLimitUSD <= 0 {
		return fmt.Errorf("budget.daily_limit_usd must be positive, got %v", cfg.Budget.DailyLimitUSD)
	}
	if cfg.Budget.MonthlyLimitUSD != nil && *cfg.Budget.MonthlyLimitUSD <= 0 {
		return fmt.Errorf("budget.monthly_limit_usd must be positive when set, got %v", *cfg.Budget.MonthlyLimitUSD)
	}
	if err := validThreshold("budget.warning_threshold_pct", cfg.Budget.WarningThresholdPct); err != nil {
		return err
	}
	if err := validThreshold("budget.critical_threshold_pct", cfg.Budget.CriticalThresholdPct); err != nil {
		return err
	}
	if cfg.Plan != nil {
		if cfg.Plan.Type == "" {
			return fmt.Errorf("plan.type is required when a plan is configured")
		}
		if cfg.Plan.MonthlyAllowanceUSD < 0 {
			return fmt.Errorf("plan.monthly_allowance_usd must not be negative")
		}
		if cfg.Plan.Seats < 0 {
			return fmt.Errorf("plan.seats must not be negative")
		}
	}
	if cfg.AdminAPI != nil && cfg.AdminAPI.APIKey == "" {
		return fmt.Errorf("admin_api.api_key is required when admin_api is configured")
	}
	return nil
}

func validThreshold(name string, v float64) error {
	if v < 1 || v > 100 {
		return fmt.Errorf("%s must be in [1,100], got %v", name, v)
	}
	return nil
}
