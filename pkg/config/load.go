package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "ATLAS_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are only used for ${VAR} expansion; use
// LoadConfigWithEnvOverrides to apply ATLAS_* overrides as well.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file (missing file means an empty configuration)
// 2. Apply environment variable overrides
// 3. Apply default values
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		cfg, err = readFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			cfg = &Config{}
		case err != nil:
			return nil, err
		}
	}

	ApplyEnvOverrides(cfg, os.Environ())
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration data. No defaults are applied.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return &cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies ATLAS_* overrides from environ (KEY=VALUE pairs).
// Unparseable values are ignored.
func ApplyEnvOverrides(cfg *Config, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) && v != "" {
			env[k] = v
		}
	}

	// Manager overrides
	if val, ok := env["ATLAS_MANAGER_STRATEGY"]; ok {
		cfg.Manager.Strategy = val
	}
	if val, ok := env["ATLAS_MANAGER_HEALTH_CHECK_INTERVAL"]; ok {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Manager.HealthCheckInterval = d
		}
	}
	if val, ok := env["ATLAS_MANAGER_UNHEALTHY_THRESHOLD"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Manager.UnhealthyThreshold = i
		}
	}

	// Telemetry overrides
	if val, ok := env["ATLAS_TELEMETRY_LOGGING_LEVEL"]; ok {
		cfg.Telemetry.Logging.Level = val
	}
	if val, ok := env["ATLAS_TELEMETRY_LOGGING_FORMAT"]; ok {
		cfg.Telemetry.Logging.Format = val
	}
	if val, ok := env["ATLAS_TELEMETRY_METRICS_ENABLED"]; ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val, ok := env["ATLAS_TELEMETRY_METRICS_LISTEN_ADDRESS"]; ok {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val, ok := env["ATLAS_TELEMETRY_METRICS_PATH"]; ok {
		cfg.Telemetry.Metrics.Path = val
	}
	if val, ok := env["ATLAS_TELEMETRY_TRACING_ENABLED"]; ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val, ok := env["ATLAS_TELEMETRY_TRACING_EXPORTER"]; ok {
		cfg.Telemetry.Tracing.Exporter = val
	}
	if val, ok := env["ATLAS_TELEMETRY_TRACING_ENDPOINT"]; ok {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val, ok := env["ATLAS_TELEMETRY_TRACING_SAMPLE_RATIO"]; ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	applyProviderEnvOverrides(cfg, env)
}

// providerEnvFields are the per-provider override suffixes.
var providerEnvFields = []string{"API_KEY", "BASE_URL", "MODEL", "KIND", "TIMEOUT", "MAX_RETRIES"}

// applyProviderEnvOverrides applies ATLAS_PROVIDERS_<NAME>_<FIELD> overrides.
// NAME is the upper-cased instance name with '-' written as '_'.
func applyProviderEnvOverrides(cfg *Config, env map[string]string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	known := make(map[string]string, len(cfg.Providers))
	for name := range cfg.Providers {
		known[envName(name)] = name
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	const prefix = EnvPrefix + "PROVIDERS_"
	for _, key := range keys {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}

		for _, field := range providerEnvFields {
			upper, ok := strings.CutSuffix(rest, "_"+field)
			if !ok || upper == "" {
				continue
			}

			name, exists := known[upper]
			if !exists {
				name = strings.ToLower(upper)
				known[upper] = name
			}

			provider := cfg.Providers[name]
			setProviderField(&provider, field, env[key])
			cfg.Providers[name] = provider
			break
		}
	}
}

func setProviderField(p *ProviderConfig, field, val string) {
	switch field {
	case "API_KEY":
		p.APIKey = val
	case "BASE_URL":
		p.BaseURL = val
	case "MODEL":
		p.Model = val
	case "KIND":
		p.Kind = val
	case "TIMEOUT":
		if d, err := time.ParseDuration(val); err == nil {
			p.Timeout = d
		}
	case "MAX_RETRIES":
		if i, err := strconv.Atoi(val); err == nil {
			p.MaxRetries = i
		}
	}
}

func envName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
