package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
server:
  port: 9090

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  name: compass_prod
  user: compass
  password: hunter2

auth:
  jwt_secret: not-a-real-secret
  token_ttl_minutes: 120

analytics:
  hourly_rate: 95
  default_task_hours: 6
  insight_ttl_days: 14

advisor:
  api_key: sk-or-test
  base_url: https://openrouter.ai/api/v1
  model: deepseek/deepseek-chat
  max_tokens: 800
  timeout_seconds: 10

herald:
  slack:
    bot_token: xoxb-test
    channel_id: C012345
  digest_cron: "0 9 * * *"
  purge_cron: "30 3 * * *"
  min_priority: medium
`

const minimalYAML = `
auth:
  jwt_secret: s3cret
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want 10.0.0.5", cfg.Database.Host)
	}
	if cfg.Auth.TokenTTL() != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.Auth.TokenTTL())
	}
	if cfg.Analytics.HourlyRate != 95 {
		t.Errorf("HourlyRate = %v, want 95", cfg.Analytics.HourlyRate)
	}
	if cfg.Analytics.DefaultTaskHours != 6 {
		t.Errorf("DefaultTaskHours = %v, want 6", cfg.Analytics.DefaultTaskHours)
	}
	if !cfg.Advisor.Enabled() {
		t.Error("Advisor.Enabled() = false, want true")
	}
	if cfg.Advisor.Timeout() != 10*time.Second {
		t.Errorf("Advisor.Timeout = %v, want 10s", cfg.Advisor.Timeout())
	}
	if cfg.Herald.Slack.ChannelID != "C012345" {
		t.Errorf("Herald.Slack.ChannelID = %q, want C012345", cfg.Herald.Slack.ChannelID)
	}
	if cfg.Herald.MinPriority != "medium" {
		t.Errorf("Herald.MinPriority = %q, want medium", cfg.Herald.MinPriority)
	}
}

func TestParse_MinimalDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "compass.db" {
		t.Errorf("Database.Path = %q, want compass.db", cfg.Database.Path)
	}
	if cfg.Analytics.HourlyRate != 75 {
		t.Errorf("HourlyRate = %v, want 75", cfg.Analytics.HourlyRate)
	}
	if cfg.Analytics.DefaultTaskHours != 8 {
		t.Errorf("DefaultTaskHours = %v, want 8", cfg.Analytics.DefaultTaskHours)
	}
	if cfg.Advisor.Enabled() {
		t.Error("Advisor.Enabled() = true, want false without api_key")
	}
	if cfg.Herald.MinPriority != "high" {
		t.Errorf("Herald.MinPriority = %q, want high", cfg.Herald.MinPriority)
	}
}

func TestParse_BadDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("error = %q", err)
	}
}

func TestParse_BadMinPriority(t *testing.T) {
	_, err := Parse([]byte("herald:\n  min_priority: urgent\n"))
	if err == nil {
		t.Fatal("expected error for bad min_priority")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [not a map"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compass.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Name != "compass_prod" {
		t.Errorf("Database.Name = %q, want compass_prod", cfg.Database.Name)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Analytics.InsightTTLDays != 30 {
		t.Errorf("InsightTTLDays = %d, want 30", cfg.Analytics.InsightTTLDays)
	}
}
