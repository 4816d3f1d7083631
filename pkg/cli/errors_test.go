package cli

import (
	"errors"
	"fmt"
	"testing"

	"deckforge-hq/atlas/pkg/config"
	"deckforge-hq/atlas/pkg/providers"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		want string
	}{
		{
			err:  NewConfigError("manager.strategy", "unknown strategy"),
			want: "config error in manager.strategy: unknown strategy",
		},
		{
			err:  NewConfigError("", "failed to load config"),
			want: "config error: failed to load config",
		},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("run", underlying)

	expected := "command run failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain", err: errors.New("boom"), want: ExitFailure},
		{name: "cli config", err: NewConfigError("output", "bad"), want: ExitConfig},
		{
			name: "validation",
			err:  fmt.Errorf("load: %w", config.ValidationError{Errors: []config.FieldError{{Field: "manager.strategy", Message: "bad"}}}),
			want: ExitConfig,
		},
		{
			name: "provider config",
			err:  fmt.Errorf("add: %w", &providers.ConfigError{Field: "api_key", Message: "API key is required"}),
			want: ExitConfig,
		},
		{
			name: "provider failure",
			err:  NewCommandError("complete", providers.NewError(providers.KindNoProviderAvailable, "", "", errors.New("none"))),
			want: ExitProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
