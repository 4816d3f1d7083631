// Package config provides configuration management for Atlas.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("atlas.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("atlas.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention ATLAS_SECTION_FIELD.
// For example:
//
//   - ATLAS_MANAGER_STRATEGY overrides manager.strategy
//   - ATLAS_PROVIDERS_PRIMARY_API_KEY overrides providers.primary.api_key
//   - ATLAS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Provider names are matched case-insensitively with '-' written as '_'.
// A provider that only exists in the environment is created from it.
//
// # Configuration Precedence
//
//  1. Values from YAML file
//  2. Environment variable overrides
//  3. Default values for fields still unset
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation is declared with struct tags and run by go-playground/validator.
// Errors carry the YAML path of the offending field:
//
//	configuration validation failed with 2 errors:
//	  - providers[primary].api_key: api_key is a required field
//	  - manager.strategy: strategy must be one of [round_robin random least_loaded fastest_response cost_optimized]
//
// # Example Configuration
//
//	manager:
//	  strategy: fastest_response
//	  health_check_interval: 5m
//
//	providers:
//	  primary:
//	    kind: deepseek
//	    api_key: "${DEEPSEEK_API_KEY}"
//	    priority: 2
//	  local:
//	    kind: openai-compatible
//	    base_url: http://localhost:11434/v1
//	    api_key: unused
//	    model: llama3
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//
// Values of the form ${VAR} are expanded from the environment when the file
// is read.
package config
