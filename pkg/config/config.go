package config

import (
	"time"

	"deckforge-hq/atlas/pkg/providers"
)

// Config is the root configuration structure for Atlas.
type Config struct {
	// Manager contains load balancing and health monitoring settings.
	Manager ManagerConfig `yaml:"manager"`

	// Providers contains the provider instances to register.
	// Keys are instance names (e.g., "primary", "backup").
	Providers map[string]ProviderConfig `yaml:"providers" validate:"dive"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ManagerConfig contains configuration for the provider manager.
type ManagerConfig struct {
	// Strategy is the load balancing strategy.
	// Options: "round_robin", "random", "least_loaded", "fastest_response", "cost_optimized"
	// Default: "least_loaded"
	Strategy string `yaml:"strategy" validate:"oneof=round_robin random least_loaded fastest_response cost_optimized"`

	// HealthCheckInterval is the period of the background health monitor.
	// Default: 5m
	HealthCheckInterval time.Duration `yaml:"health_check_interval" validate:"gte=1s"`

	// UnhealthyThreshold is the number of consecutive failures after which a
	// provider stops receiving traffic.
	// Default: 3
	UnhealthyThreshold int `yaml:"unhealthy_threshold" validate:"gte=1"`
}

// ProviderConfig contains configuration for a single provider instance.
type ProviderConfig struct {
	// Kind selects the adapter registered in the provider factory.
	// Options: "deepseek", "openai-compatible"
	// Default: "deepseek"
	Kind string `yaml:"kind" validate:"required"`

	// APIKey is the credential sent as a bearer token.
	// This should typically be loaded from an environment variable.
	APIKey string `yaml:"api_key" validate:"required"`

	// BaseURL overrides the adapter's default endpoint.
	// Required for "openai-compatible".
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	// Model overrides the adapter's default model.
	Model string `yaml:"model"`

	// MaxRetries is the total number of transport attempts per request.
	// Default: 3
	MaxRetries int `yaml:"max_retries" validate:"gte=1,lte=10"`

	// Timeout bounds every transport call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" validate:"gte=1s"`

	// Priority is reported in provider status.
	// Default: 1
	Priority int `yaml:"priority"`

	// Weight biases the random strategy (each 0.1 is one share).
	// Default: 1.0
	Weight float64 `yaml:"weight" validate:"gte=0"`

	// CustomHeaders are added to every outbound request.
	CustomHeaders map[string]string `yaml:"custom_headers"`

	// RateLimit overrides the default admission ceilings.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// RetryDelays overrides the backoff ladder.
	// Default: [1s, 2s, 4s, 8s, 16s]
	RetryDelays []time.Duration `yaml:"retry_delays" validate:"dive,gt=0"`
}

// RateLimitConfig contains per-provider admission ceilings.
// Zero values use the limiter defaults (60 requests, 100000 tokens per minute).
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"gte=0"`
	TokensPerMinute   int `yaml:"tokens_per_minute" validate:"gte=0"`
}

// ProviderSettings converts the file representation into the provider
// construction config.
func (p ProviderConfig) ProviderSettings(name string) providers.Config {
	cfg := providers.Config{
		Name:          name,
		Kind:          p.Kind,
		APIKey:        p.APIKey,
		BaseURL:       p.BaseURL,
		Model:         p.Model,
		MaxRetries:    p.MaxRetries,
		Timeout:       p.Timeout,
		CustomHeaders: p.CustomHeaders,
		RetryDelays:   p.RetryDelays,
	}
	if p.RateLimit.RequestsPerMinute > 0 || p.RateLimit.TokensPerMinute > 0 {
		cfg.RateLimit = &providers.RateLimitConfig{
			RequestsPerMinute: p.RateLimit.RequestsPerMinute,
			TokensPerMinute:   p.RateLimit.TokensPerMinute,
		}
	}
	return cfg
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format controls the log output format.
	// Options: "json", "console", "text"
	// Default: "json"
	Format string `yaml:"format" validate:"oneof=json console text"`

	// Development enables stack traces on warnings and caller annotations.
	// Default: false
	Development bool `yaml:"development"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where `atlas run` serves the metrics endpoint.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address" validate:"omitempty,hostname_port"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" validate:"omitempty,startswith=/"`

	// Namespace is the metric name prefix.
	// Default: "atlas"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Exporter determines the trace exporter to use.
	// Options: "stdout", "otlp"
	// Default: "stdout"
	Exporter string `yaml:"exporter" validate:"oneof=stdout otlp"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`

	// ServiceName is the service name in traces.
	// Default: "atlas"
	ServiceName string `yaml:"service_name"`
}
