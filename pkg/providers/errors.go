package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a provider failure. The Manager decides whether to fail
// over, demote or surface a failure by inspecting the kind alone.
type ErrorKind int

const (
	// KindUnknown is never produced by this package; it is the zero value.
	KindUnknown ErrorKind = iota

	// KindAuthentication means the credential was rejected (HTTP 401/403).
	// Never retried.
	KindAuthentication

	// KindRateLimited means a local ceiling was hit or the remote returned 429.
	// Never retried. RetryAfter carries the wait hint when known.
	KindRateLimited

	// KindTransport covers connection errors, timeouts and 5xx responses.
	// Retried per the backoff ladder.
	KindTransport

	// KindModel covers other non-2xx responses and undecodable bodies.
	// Not retried.
	KindModel

	// KindNoProviderAvailable is raised by the Manager when every candidate
	// failed or none was healthy.
	KindNoProviderAvailable
)

// String returns the kind name used in logs, metrics labels and error responses.
func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "AuthenticationFailure"
	case KindRateLimited:
		return "RateLimited"
	case KindTransport:
		return "TransportFailure"
	case KindModel:
		return "ModelFailure"
	case KindNoProviderAvailable:
		return "NoProviderAvailable"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the retry executor may attempt the call again.
func (k ErrorKind) Retryable() bool {
	return k == KindTransport
}

// Error is the failure variant of every provider operation.
// It carries the kind plus enough context to build a diagnostic message.
type Error struct {
	// Kind classifies the failure
	Kind ErrorKind

	// Provider is the name of the provider that failed (empty for manager errors)
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is a human-readable description
	Message string

	// RetryAfter is the suggested wait for KindRateLimited errors
	RetryAfter time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	switch {
	case e.Provider == "":
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	case e.StatusCode > 0:
		return fmt.Sprintf("provider %q %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, msg)
	default:
		return fmt.Sprintf("provider %q %s: %s", e.Provider, e.Kind, msg)
	}
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, provider, message string, cause error) *Error {
	return &Error{Kind: kind, Provider: provider, Message: message, Cause: cause}
}

// RateLimited creates a KindRateLimited error with a wait hint.
func RateLimited(provider, message string, retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Provider: provider, Message: message, RetryAfter: retryAfter}
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ConfigError represents a provider configuration error.
// This occurs when the provider configuration is invalid.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ErrorResponse builds the error-shaped response returned to callers that
// expect a response value even on failure (the CLI and streaming paths).
// Content begins with "Error: " and confidence is 0.
func ErrorResponse(err error, provider, model string) *CompletionResponse {
	if model == "" {
		model = "unknown"
	}
	kind := KindOf(err)
	return &CompletionResponse{
		Content:      "Error: " + err.Error(),
		Confidence:   0,
		Reasoning:    "Request failed due to: " + kind.String(),
		Alternatives: []map[string]any{},
		Usage:        Usage{Error: true},
		Provider:     provider,
		Model:        model,
		Metadata: map[string]any{
			"error":      err.Error(),
			"error_type": kind.String(),
		},
	}
}
