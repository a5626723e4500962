package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Global  GlobalConfig  `yaml:"global" json:"global"`
	API     APIConfig     `yaml:"api" json:"api"`
	Console ConsoleConfig `yaml:"console" json:"console"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Session SessionConfig `yaml:"session" json:"session"`
}

type GlobalConfig struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
	LogFile   string `yaml:"log_file" json:"log_file"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
	Quiet     bool   `yaml:"quiet" json:"quiet"`
}

type APIConfig struct {
	BaseURL       string        `yaml:"base_url" json:"base_url"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	RateLimit     int           `yaml:"rate_limit" json:"rate_limit"`
	RateBurst     int           `yaml:"rate_burst" json:"rate_burst"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	TLSSkipVerify bool          `yaml:"tls_skip_verify" json:"tls_skip_verify"`
}

type ConsoleConfig struct {
	DashboardInterval time.Duration `yaml:"dashboard_interval" json:"dashboard_interval"`
	ScansInterval     time.Duration `yaml:"scans_interval" json:"scans_interval"`
	RecentActivity    int           `yaml:"recent_activity" json:"recent_activity"`
	DedupGraphLinks   bool          `yaml:"dedup_graph_links" json:"dedup_graph_links"`
	ReportDir         string        `yaml:"report_dir" json:"report_dir"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Runtime bool   `yaml:"runtime" json:"runtime"`
}

type SessionConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".vantage")

	return &Config{
		Global: GlobalConfig{
			LogLevel:  "info",
			LogFormat: "json",
			DataDir:   base,
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8000/api/v1",
			Timeout:   30 * time.Second,
			RateLimit: 10,
			RateBurst: 20,
			UserAgent: "Vantage/1.0 Operator Console",
		},
		Console: ConsoleConfig{
			DashboardInterval: 10 * time.Second,
			ScansInterval:     5 * time.Second,
			RecentActivity:    5,
			DedupGraphLinks:   false,
			ReportDir:         filepath.Join(base, "reports"),
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9190",
			Runtime: true,
		},
		Session: SessionConfig{
			Dir: filepath.Join(base, "session"),
		},
	}
}

func (c *Config) Validate() error {
	var errs []string

	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url must not be empty")
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, "api.base_url must be an http(s) URL")
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "api.timeout must be > 0")
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, "api.rate_limit must be >= 0")
	}

	if c.Console.DashboardInterval <= 0 {
		errs = append(errs, "console.dashboard_interval must be > 0")
	}
	if c.Console.ScansInterval <= 0 {
		errs = append(errs, "console.scans_interval must be > 0")
	}
	if c.Console.RecentActivity <= 0 {
		errs = append(errs, "console.recent_activity must be > 0")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr must be set when metrics are enabled")
	}

	if c.Session.Dir == "" {
		errs = append(errs, "session.dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		data []byte
		err  error
	)
	switch ext {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomically write config: %w", err)
	}
	return nil
}

func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	}

	return c.Validate()
}
