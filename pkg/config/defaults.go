package config

import "time"

// Default values for configuration fields.
const (
	// Manager defaults
	DefaultStrategy            = "least_loaded"
	DefaultHealthCheckInterval = 300 * time.Second
	DefaultUnhealthyThreshold  = 3

	// Provider defaults
	DefaultProviderKind       = "deepseek"
	DefaultProviderTimeout    = 30 * time.Second
	DefaultProviderMaxRetries = 3
	DefaultProviderPriority   = 1
	DefaultProviderWeight     = 1.0

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Metrics defaults
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "atlas"
	DefaultMetricsSubsystem     = "gateway"

	// Tracing defaults
	DefaultTracingExporter    = "stdout"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "atlas"
)

// DefaultRequestDurationBuckets is optimized for LLM request latencies (100ms - 30s).
var DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}

// ApplyDefaults fills zero-valued fields with their defaults.
// Boolean switches keep their zero value (disabled).
func ApplyDefaults(cfg *Config) {
	applyManagerDefaults(&cfg.Manager)

	for name, p := range cfg.Providers {
		applyProviderDefaults(&p)
		cfg.Providers[name] = p
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyManagerDefaults(cfg *ManagerConfig) {
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if cfg.UnhealthyThreshold == 0 {
		cfg.UnhealthyThreshold = DefaultUnhealthyThreshold
	}
}

func applyProviderDefaults(cfg *ProviderConfig) {
	if cfg.Kind == "" {
		cfg.Kind = DefaultProviderKind
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultProviderMaxRetries
	}
	if cfg.Priority == 0 {
		cfg.Priority = DefaultProviderPriority
	}
	if cfg.Weight == 0 {
		cfg.Weight = DefaultProviderWeight
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.RequestDurationBuckets) == 0 {
		cfg.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}

	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
}

// Default returns a configuration with every default applied and no
// providers.
func Default() *Config {
	cfg := &Config{Providers: map[string]ProviderConfig{}}
	ApplyDefaults(cfg)
	return cfg
}
