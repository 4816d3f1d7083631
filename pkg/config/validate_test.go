package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"primary": {APIKey: "sk-primary"},
	}}
	ApplyDefaults(cfg)
	return cfg
}

func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Errors
}

func hasField(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "unknown strategy",
			mutate: func(c *Config) { c.Manager.Strategy = "fastest" },
			field:  "manager.strategy",
		},
		{
			name:   "interval below one second",
			mutate: func(c *Config) { c.Manager.HealthCheckInterval = 10 * time.Millisecond },
			field:  "manager.health_check_interval",
		},
		{
			name:   "zero threshold",
			mutate: func(c *Config) { c.Manager.UnhealthyThreshold = -1 },
			field:  "manager.unhealthy_threshold",
		},
		{
			name: "missing api key",
			mutate: func(c *Config) {
				p := c.Providers["primary"]
				p.APIKey = ""
				c.Providers["primary"] = p
			},
			field: "providers[primary].api_key",
		},
		{
			name: "too many retries",
			mutate: func(c *Config) {
				p := c.Providers["primary"]
				p.MaxRetries = 11
				c.Providers["primary"] = p
			},
			field: "providers[primary].max_retries",
		},
		{
			name: "malformed base url",
			mutate: func(c *Config) {
				p := c.Providers["primary"]
				p.BaseURL = "not a url"
				c.Providers["primary"] = p
			},
			field: "providers[primary].base_url",
		},
		{
			name: "openai-compatible without base url",
			mutate: func(c *Config) {
				p := c.Providers["primary"]
				p.Kind = "openai-compatible"
				c.Providers["primary"] = p
			},
			field: "providers[primary].base_url",
		},
		{
			name: "negative weight",
			mutate: func(c *Config) {
				p := c.Providers["primary"]
				p.Weight = -1
				c.Providers["primary"] = p
			},
			field: "providers[primary].weight",
		},
		{
			name:   "invalid log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "metrics path without slash",
			mutate: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			field:  "telemetry.metrics.path",
		},
		{
			name:   "unordered buckets",
			mutate: func(c *Config) { c.Telemetry.Metrics.RequestDurationBuckets = []float64{1, 0.5} },
			field:  "telemetry.metrics.request_duration_buckets",
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Exporter = "otlp"
			},
			field: "telemetry.tracing.endpoint",
		},
		{
			name:   "sample ratio above one",
			mutate: func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			field:  "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			errs := fieldErrors(t, Validate(cfg))
			if !hasField(errs, tt.field) {
				t.Errorf("expected error on %q, got %+v", tt.field, errs)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	p := cfg.Providers["primary"]
	p.Kind = "openai-compatible"
	p.BaseURL = "https://llm.internal.example/v1"
	p.RetryDelays = []time.Duration{time.Second}
	cfg.Providers["primary"] = p
	cfg.Telemetry.Tracing.Enabled = true
	cfg.Telemetry.Tracing.Exporter = "otlp"
	cfg.Telemetry.Tracing.Endpoint = "localhost:4317"

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid configuration, got %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	if got := (ValidationError{}).Error(); got != "configuration validation failed" {
		t.Errorf("unexpected message %q", got)
	}

	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	got := multi.Error()
	if !strings.Contains(got, "with 2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("unexpected message %q", got)
	}
}

func TestValidate_OneofMessage(t *testing.T) {
	cfg := validConfig()
	cfg.Manager.Strategy = "nope"

	errs := fieldErrors(t, Validate(cfg))
	want := "must be one of [round_robin, random, least_loaded, fastest_response, cost_optimized]"
	if errs[0].Message != want {
		t.Errorf("expected %q, got %q", want, errs[0].Message)
	}
}
