package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "atlas.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
manager:
  strategy: "round_robin"
  health_check_interval: "1m"
  unhealthy_threshold: 5

providers:
  primary:
    kind: "deepseek"
    api_key: "sk-primary-key"
    timeout: "10s"
    max_retries: 5
    weight: 2.5
    rate_limit:
      requests_per_minute: 30
  backup:
    api_key: "sk-backup-key"
    model: "deepseek-coder"

telemetry:
  logging:
    level: "debug"
    format: "console"
  metrics:
    enabled: true
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Manager.Strategy != "round_robin" {
		t.Errorf("expected strategy %q, got %q", "round_robin", cfg.Manager.Strategy)
	}
	if cfg.Manager.HealthCheckInterval != time.Minute {
		t.Errorf("expected interval %v, got %v", time.Minute, cfg.Manager.HealthCheckInterval)
	}
	if cfg.Manager.UnhealthyThreshold != 5 {
		t.Errorf("expected threshold 5, got %d", cfg.Manager.UnhealthyThreshold)
	}

	primary, exists := cfg.Providers["primary"]
	if !exists {
		t.Fatal("expected primary provider")
	}
	if primary.Timeout != 10*time.Second {
		t.Errorf("expected timeout %v, got %v", 10*time.Second, primary.Timeout)
	}
	if primary.MaxRetries != 5 {
		t.Errorf("expected max retries 5, got %d", primary.MaxRetries)
	}
	if primary.Weight != 2.5 {
		t.Errorf("expected weight 2.5, got %v", primary.Weight)
	}

	backup := cfg.Providers["backup"]
	if backup.Kind != DefaultProviderKind {
		t.Errorf("expected default kind %q, got %q", DefaultProviderKind, backup.Kind)
	}
	if backup.Timeout != DefaultProviderTimeout {
		t.Errorf("expected default timeout, got %v", backup.Timeout)
	}

	settings := primary.ProviderSettings("primary")
	if settings.Name != "primary" || settings.APIKey != "sk-primary-key" {
		t.Errorf("unexpected provider settings: %+v", settings)
	}
	if settings.RateLimit == nil || settings.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("expected rate limit override, got %+v", settings.RateLimit)
	}
	if backup.ProviderSettings("backup").RateLimit != nil {
		t.Error("expected no rate limit override for backup")
	}

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
	if cfg.Telemetry.Metrics.ListenAddress != DefaultMetricsListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Telemetry.Metrics.ListenAddress)
	}
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	t.Setenv("ATLAS_TEST_DEEPSEEK_KEY", "sk-from-env")

	configPath := writeConfig(t, `
providers:
  primary:
    api_key: "${ATLAS_TEST_DEEPSEEK_KEY}"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if got := cfg.Providers["primary"].APIKey; got != "sk-from-env" {
		t.Errorf("expected expanded key, got %q", got)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if !strings.Contains(err.Error(), "failed to read configuration file") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "manager: [unclosed"))
		if err == nil {
			t.Fatal("expected parse error")
		}
		if !strings.Contains(err.Error(), "failed to parse configuration file") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
manager:
  strategy: "fastest"
providers:
  primary:
    api_key: "k"
`))
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(verr.Errors) != 1 || verr.Errors[0].Field != "manager.strategy" {
			t.Errorf("unexpected field errors: %+v", verr.Errors)
		}
	})
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Run("env wins over file", func(t *testing.T) {
		t.Setenv("ATLAS_MANAGER_STRATEGY", "cost_optimized")
		t.Setenv("ATLAS_PROVIDERS_PRIMARY_API_KEY", "sk-override")
		t.Setenv("ATLAS_PROVIDERS_PRIMARY_TIMEOUT", "45s")

		configPath := writeConfig(t, `
manager:
  strategy: "random"
providers:
  primary:
    api_key: "sk-file"
`)

		cfg, err := LoadConfigWithEnvOverrides(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if cfg.Manager.Strategy != "cost_optimized" {
			t.Errorf("expected env strategy, got %q", cfg.Manager.Strategy)
		}
		primary := cfg.Providers["primary"]
		if primary.APIKey != "sk-override" {
			t.Errorf("expected env key, got %q", primary.APIKey)
		}
		if primary.Timeout != 45*time.Second {
			t.Errorf("expected env timeout, got %v", primary.Timeout)
		}
	})

	t.Run("missing file uses env only", func(t *testing.T) {
		t.Setenv("ATLAS_PROVIDERS_EDGE_API_KEY", "sk-edge")

		cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		edge, ok := cfg.Providers["edge"]
		if !ok {
			t.Fatal("expected provider created from environment")
		}
		if edge.APIKey != "sk-edge" || edge.Kind != DefaultProviderKind {
			t.Errorf("unexpected provider: %+v", edge)
		}
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"us-east": {APIKey: "sk-file"},
	}}

	ApplyEnvOverrides(cfg, []string{
		"ATLAS_PROVIDERS_US_EAST_MODEL=deepseek-coder",
		"ATLAS_PROVIDERS_US_EAST_MAX_RETRIES=7",
		"ATLAS_PROVIDERS_US_EAST_TIMEOUT=not-a-duration",
		"ATLAS_MANAGER_UNHEALTHY_THRESHOLD=9",
		"ATLAS_TELEMETRY_TRACING_ENABLED=true",
		"ATLAS_TELEMETRY_TRACING_SAMPLE_RATIO=0.25",
		"ATLAS_TELEMETRY_LOGGING_LEVEL=",
		"HOME=/root",
	})

	east := cfg.Providers["us-east"]
	if east.Model != "deepseek-coder" {
		t.Errorf("expected model override, got %q", east.Model)
	}
	if east.MaxRetries != 7 {
		t.Errorf("expected max retries 7, got %d", east.MaxRetries)
	}
	if east.Timeout != 0 {
		t.Errorf("expected unparseable timeout to be ignored, got %v", east.Timeout)
	}
	if len(cfg.Providers) != 1 {
		t.Errorf("expected overrides to target existing provider, got %v", cfg.Providers)
	}
	if cfg.Manager.UnhealthyThreshold != 9 {
		t.Errorf("expected threshold 9, got %d", cfg.Manager.UnhealthyThreshold)
	}
	if !cfg.Telemetry.Tracing.Enabled || cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("unexpected tracing config: %+v", cfg.Telemetry.Tracing)
	}
	if cfg.Telemetry.Logging.Level != "" {
		t.Errorf("expected empty value to be ignored, got %q", cfg.Telemetry.Logging.Level)
	}
}
