package cli

import (
	"errors"
	"fmt"

	"deckforge-hq/atlas/pkg/config"
	"deckforge-hq/atlas/pkg/providers"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitProvider = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		cfgErr      *ConfigError
		providerCfg *providers.ConfigError
		invalid     config.ValidationError
		provErr     *providers.Error
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &providerCfg), errors.As(err, &invalid):
		return ExitConfig
	case errors.As(err, &provErr):
		return ExitProvider
	default:
		return ExitFailure
	}
}
