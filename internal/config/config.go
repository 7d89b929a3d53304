// Package config provides YAML-based configuration loading for Compass.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Compass configuration, loaded from compass.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	Herald    HeraldConfig    `yaml:"herald"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects and configures the storage backend.
// Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite file path, ":memory:" for tests
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// AuthConfig holds token-signing settings.
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	TokenTTLMins int    `yaml:"token_ttl_minutes"`
}

// TokenTTL returns the access-token lifetime as a duration.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMins) * time.Minute
}

// AnalyticsConfig holds tunables for the rule-based scorers.
type AnalyticsConfig struct {
	HourlyRate       float64 `yaml:"hourly_rate"`
	DefaultTaskHours float64 `yaml:"default_task_hours"`
	InsightTTLDays   int     `yaml:"insight_ttl_days"`
}

// AdvisorConfig holds credentials for the hosted-model analysis path.
// When APIKey is empty the advisor is disabled and every analysis uses the
// rule-based scorers.
type AdvisorConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Enabled reports whether the advisor has a usable credential.
func (a AdvisorConfig) Enabled() bool {
	return a.APIKey != ""
}

// Timeout returns the per-request deadline for advisor calls.
func (a AdvisorConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// HeraldConfig holds chat-platform alerting settings.
type HeraldConfig struct {
	Slack       SlackConfig   `yaml:"slack"`
	Discord     DiscordConfig `yaml:"discord"`
	DigestCron  string        `yaml:"digest_cron"`  // 5-field cron, empty disables
	PurgeCron   string        `yaml:"purge_cron"`   // 5-field cron, empty disables
	MinPriority string        `yaml:"min_priority"` // lowest insight priority to push
}

// SlackConfig holds Slack bot credentials for the herald adapter.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot credentials for the herald adapter.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with all defaults applied and no file input.
// Used by tests and commands that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "compass.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "compass"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Auth.TokenTTLMins == 0 {
		c.Auth.TokenTTLMins = 8 * 60
	}
	if c.Analytics.HourlyRate == 0 {
		c.Analytics.HourlyRate = 75
	}
	if c.Analytics.DefaultTaskHours == 0 {
		c.Analytics.DefaultTaskHours = 8
	}
	if c.Analytics.InsightTTLDays == 0 {
		c.Analytics.InsightTTLDays = 30
	}
	if c.Advisor.BaseURL == "" {
		c.Advisor.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Advisor.Model == "" {
		c.Advisor.Model = "deepseek/deepseek-chat"
	}
	if c.Advisor.MaxTokens == 0 {
		c.Advisor.MaxTokens = 1000
	}
	if c.Advisor.TimeoutSeconds == 0 {
		c.Advisor.TimeoutSeconds = 20
	}
	if c.Herald.MinPriority == "" {
		c.Herald.MinPriority = "high"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Analytics.HourlyRate < 0 {
		errs = append(errs, "analytics.hourly_rate must not be negative")
	}
	if c.Analytics.DefaultTaskHours < 0 {
		errs = append(errs, "analytics.default_task_hours must not be negative")
	}
	switch c.Herald.MinPriority {
	case "low", "medium", "high", "critical":
	default:
		errs = append(errs, fmt.Sprintf("herald.min_priority %q is not a priority", c.Herald.MinPriority))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
