// Package config loads and validates the suite configuration from YAML files
// and DAGKNOWS_* / POSTGRESQL_DB_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root suite configuration.
type Config struct {
	BaseURL        string         `yaml:"base_url"`
	TaskServiceURL string         `yaml:"taskservice_url"`
	ReqRouterURL   string         `yaml:"req_router_url"`
	ElasticURL     string         `yaml:"elastic_url"`
	Token          string         `yaml:"token"`
	Credentials    Credentials    `yaml:"credentials"`
	ProxyParam     string         `yaml:"proxy_param"`
	HTTP           HTTPConfig     `yaml:"http"`
	Postgres       PostgresConfig `yaml:"postgres"`
	Browser        BrowserConfig  `yaml:"browser"`
	Observability  Observability  `yaml:"observability"`
}

// Credentials are the UI login credentials for the deployment under test.
type Credentials struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Org      string `yaml:"org"`
}

// HTTPConfig describes client-side HTTP behavior.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig describes the retry policy applied to idempotent requests.
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	BackoffInitial    time.Duration `yaml:"backoff_initial"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	IdempotentOnly    bool          `yaml:"idempotent_only"`
}

// PostgresConfig holds connection details for direct database verification.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN returns a pgx-compatible connection string, or "" when unconfigured.
func (p PostgresConfig) DSN() string {
	if p.Host == "" || p.Database == "" {
		return ""
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, port, p.Database, sslMode)
}

// BrowserConfig describes Playwright browser settings.
type BrowserConfig struct {
	Headless       bool          `yaml:"headless"`
	SlowMo         time.Duration `yaml:"slow_mo"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	ScreenshotDir  string        `yaml:"screenshot_dir"`
}

// Observability describes logging and tracing settings.
type Observability struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
}

// TracingConfig describes trace export settings.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		ProxyParam: "proxy",
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:       3,
				BackoffInitial:    200 * time.Millisecond,
				BackoffMultiplier: 2,
				BackoffMax:        2 * time.Second,
				IdempotentOnly:    true,
			},
		},
		Browser: BrowserConfig{
			Headless:       true,
			DefaultTimeout: 15 * time.Second,
			ScreenshotDir:  "screenshots",
		},
		Observability: Observability{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter: "stdout",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a Config from environment variables alone. Test code uses
// this so a checkout runs against any deployment without a config file.
func FromEnv() *Config {
	cfg := Defaults()
	applyEnvOverrides(cfg)
	return cfg
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "base_url is required (DAGKNOWS_URL)")
	}
	if c.TaskServiceURL == "" {
		errs = append(errs, "taskservice_url is required (DAGKNOWS_TASKSERVICE_URL)")
	}
	if c.ReqRouterURL == "" {
		errs = append(errs, "req_router_url is required (DAGKNOWS_REQ_ROUTER_URL)")
	}
	if c.HTTP.Retry.MaxAttempts < 1 {
		errs = append(errs, "http.retry.max_attempts must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// HasUICredentials reports whether browser login flows can run.
func (c *Config) HasUICredentials() bool {
	return c.Credentials.Email != "" && c.Credentials.Password != ""
}

// HasPostgres reports whether direct database verification is configured.
func (c *Config) HasPostgres() bool {
	return c.Postgres.DSN() != ""
}

// HasElastic reports whether the search index endpoint is configured.
func (c *Config) HasElastic() bool {
	return c.ElasticURL != ""
}

// applyEnvOverrides reads DAGKNOWS_* and POSTGRESQL_DB_* environment
// variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DAGKNOWS_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DAGKNOWS_TASKSERVICE_URL"); v != "" {
		cfg.TaskServiceURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DAGKNOWS_REQ_ROUTER_URL"); v != "" {
		cfg.ReqRouterURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DAGKNOWS_ELASTIC_URL"); v != "" {
		cfg.ElasticURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DAGKNOWS_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("DAGKNOWS_USERNAME"); v != "" {
		cfg.Credentials.Email = v
	}
	if v := os.Getenv("DAGKNOWS_PASSWORD"); v != "" {
		cfg.Credentials.Password = v
	}
	if v := os.Getenv("DAGKNOWS_ORG"); v != "" {
		cfg.Credentials.Org = v
	}
	if v := os.Getenv("DAGKNOWS_PROXY_PARAM"); v != "" {
		cfg.ProxyParam = v
	}
	if v := os.Getenv("DAGKNOWS_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("HEADLESS"); v == "false" {
		cfg.Browser.Headless = false
	}

	if v := os.Getenv("POSTGRESQL_DB_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRESQL_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("POSTGRESQL_DB_NAME"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("POSTGRESQL_DB_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("POSTGRESQL_DB_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
}
