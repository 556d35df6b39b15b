package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected log level info, got %q", cfg.Logging.Level)
	}
	if cfg.Credential.TTL != 5*time.Minute {
		t.Errorf("Expected ttl 5m, got %s", cfg.Credential.TTL)
	}
	if cfg.Credential.FetchTimeout != 15*time.Second {
		t.Errorf("Expected fetch_timeout 15s, got %s", cfg.Credential.FetchTimeout)
	}
	if cfg.Credential.MaxAttempts != 3 || cfg.Enhancer.AcquireAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d/%d", cfg.Credential.MaxAttempts, cfg.Enhancer.AcquireAttempts)
	}
	if cfg.Credential.SweepInterval != time.Minute {
		t.Errorf("Expected sweep_interval 60s, got %s", cfg.Credential.SweepInterval)
	}
	if cfg.Remote.Model != "gpt-4o" || cfg.Remote.MaxTokens != 4096 {
		t.Errorf("Unexpected remote defaults: %+v", cfg.Remote)
	}
	if cfg.Remote.Timeout != 60*time.Second {
		t.Errorf("Expected remote timeout 60s, got %s", cfg.Remote.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: "DEBUG"
  pretty: true
telemetry:
  otlp_endpoint: "localhost:4317"
  insecure: true
  metrics_address: ":9464"
credential:
  endpoint: "https://accounts.example.com/api/me"
  ttl: 2m
  fetch_timeout: 5s
remote:
  endpoint: "https://llm.example.com/v1/chat/completions"
  model: "gpt-4o-mini"
  temperature: 0.7
  breaker:
    max_failures: 2
    open_timeout: 10s
  rate_limit:
    requests_per_second: 5
registry:
  modules_file: "modules.yaml"
  levels_file: "levels.yaml"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" || !cfg.Logging.Pretty {
		t.Errorf("Unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Credential.TTL != 2*time.Minute || cfg.Credential.FetchTimeout != 5*time.Second {
		t.Errorf("Unexpected credential durations: %+v", cfg.Credential)
	}
	if cfg.Credential.BackoffUnit != time.Second {
		t.Errorf("Expected default backoff_unit to survive partial override, got %s", cfg.Credential.BackoffUnit)
	}
	if cfg.Remote.Model != "gpt-4o-mini" || cfg.Remote.Temperature != 0.7 {
		t.Errorf("Unexpected remote config: %+v", cfg.Remote)
	}
	if cfg.Remote.Breaker.MaxFailures != 2 || cfg.Remote.Breaker.OpenTimeout != 10*time.Second {
		t.Errorf("Unexpected breaker config: %+v", cfg.Remote.Breaker)
	}
	if cfg.Remote.RateLimit.Burst != 1 {
		t.Errorf("Expected burst to default to 1, got %d", cfg.Remote.RateLimit.Burst)
	}
	if cfg.Registry.ModulesFile != "modules.yaml" || cfg.Registry.LevelsFile != "levels.yaml" {
		t.Errorf("Unexpected registry config: %+v", cfg.Registry)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CODEFORGE_LOG_LEVEL", "warn")
	t.Setenv("CODEFORGE_SESSION_TOKEN", "session-123")
	t.Setenv("CODEFORGE_CREDENTIAL_ENDPOINT", "http://localhost:8080/me")
	t.Setenv("CODEFORGE_CREDENTIAL_TTL", "90s")
	t.Setenv("CODEFORGE_REMOTE_MAX_TOKENS", "1024")

	cfg, err := Load(writeConfig(t, "logging:\n  level: error\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected env to override log level, got %q", cfg.Logging.Level)
	}
	if cfg.Credential.SessionToken != "session-123" {
		t.Errorf("Expected session token from env")
	}
	if cfg.Credential.TTL != 90*time.Second {
		t.Errorf("Expected ttl 90s, got %s", cfg.Credential.TTL)
	}
	if cfg.Remote.MaxTokens != 1024 {
		t.Errorf("Expected max_tokens 1024, got %d", cfg.Remote.MaxTokens)
	}
}

func TestEnvOverrideParseError(t *testing.T) {
	t.Setenv("CODEFORGE_REMOTE_TIMEOUT", "soon")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "CODEFORGE_REMOTE_TIMEOUT") {
		t.Fatalf("Expected parse error naming the variable, got %v", err)
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad log level", "logging:\n  level: loud\n", "invalid log level"},
		{"bad credential endpoint", "credential:\n  endpoint: ftp://x\n", "unsupported scheme"},
		{"zero ttl", "credential:\n  ttl: 0s\n", "ttl must be positive"},
		{"no attempts", "credential:\n  max_attempts: 0\n", "max_attempts"},
		{"temperature", "remote:\n  temperature: 3\n", "temperature"},
		{"breaker timeout", "remote:\n  breaker:\n    max_failures: 1\n    open_timeout: 0s\n", "open_timeout"},
		{"acquire attempts", "enhancer:\n  acquire_attempts: 0\n", "acquire_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
