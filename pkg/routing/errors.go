package routing

import (
	"errors"
	"fmt"
	"strings"

	"deckforge-hq/atlas/pkg/providers"
)

// Common manager errors that can be checked with errors.Is().
var (
	// ErrNoHealthyProviders is the cause of a NoProviderAvailable failure
	// when no registered provider was eligible.
	ErrNoHealthyProviders = errors.New("no healthy providers available")

	// ErrProviderNotFound is returned when a named provider is not registered.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrAllProvidersFailed is the cause of a NoProviderAvailable failure
	// when every candidate was attempted and failed.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrManagerClosed is returned by operations on a closed Manager.
	ErrManagerClosed = errors.New("provider manager is closed")
)

// ProviderNotFoundError is returned when an operation names a provider that
// is not registered.
type ProviderNotFoundError struct {
	// ProviderName is the requested provider that was not found.
	ProviderName string

	// AvailableProviders contains the names of registered providers.
	AvailableProviders []string
}

// Error implements the error interface.
func (e *ProviderNotFoundError) Error() string {
	if len(e.AvailableProviders) == 0 {
		return fmt.Sprintf("provider %q not found (no providers registered)", e.ProviderName)
	}
	return fmt.Sprintf("provider %q not found (available providers: %s)",
		e.ProviderName, strings.Join(e.AvailableProviders, ", "))
}

// Is implements error matching for errors.Is().
func (e *ProviderNotFoundError) Is(target error) bool {
	return target == ErrProviderNotFound
}

// AllProvidersFailedError records an exhausted candidate ordering.
// It is wrapped by the NoProviderAvailable *providers.Error returned to callers.
type AllProvidersFailedError struct {
	// AttemptedProviders contains the names of providers that were tried, in order.
	AttemptedProviders []string

	// LastError is the error from the last attempted provider.
	LastError error
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed (attempted: %s, last error: %v)",
		strings.Join(e.AttemptedProviders, ", "), e.LastError)
}

// Is implements error matching for errors.Is().
func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

// Unwrap returns the wrapped error for error chain traversal.
func (e *AllProvidersFailedError) Unwrap() error {
	return e.LastError
}

// noHealthyProviders builds the failure returned when the ordering is empty.
func noHealthyProviders() *providers.Error {
	return providers.NewError(providers.KindNoProviderAvailable, "", "", ErrNoHealthyProviders)
}

// allProvidersFailed builds the failure returned when every candidate failed.
func allProvidersFailed(attempted []string, last error) *providers.Error {
	return providers.NewError(providers.KindNoProviderAvailable, "", "",
		&AllProvidersFailedError{AttemptedProviders: attempted, LastError: last})
}
