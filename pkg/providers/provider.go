package providers

import "context"

// Provider is the capability contract every generative-text backend implements.
// The Manager treats providers as interchangeable and relies only on this
// interface.
//
// All blocking methods accept a context.Context for cancellation. Transport
// calls are additionally bounded by the provider's configured timeout.
//
// Example usage:
//
//	provider, err := registry.New(providers.Config{Name: "primary", Kind: "deepseek", APIKey: key}, deps)
//	if err != nil {
//	    return err
//	}
//	if err := provider.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	resp, err := provider.Complete(ctx, &CompletionRequest{
//	    Prompt:        "Outline a quarterly review deck",
//	    OperationType: OperationContentGeneration,
//	})
type Provider interface {
	// Initialize establishes the transport and performs one lightweight
	// validation call. It is idempotent: repeated calls reconfirm the transport.
	//
	// On failure the provider is left uninitialized and must not receive traffic.
	Initialize(ctx context.Context) error

	// ValidateCredential performs a minimal remote call.
	//
	// An authentication rejection (HTTP 401) yields false. Any other HTTP
	// error status yields true: the credential is assumed fine when the
	// failure looks unrelated to authentication.
	ValidateCredential(ctx context.Context) bool

	// ListModels returns the remote model catalog, or a built-in fallback list
	// when the catalog is unavailable. It never fails.
	ListModels(ctx context.Context) []string

	// Complete performs a completion: rate-limit admission, payload build,
	// retried transport call, response parsing and self-metrics update.
	//
	// On failure the returned error is always an *Error carrying an ErrorKind.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Stream delivers content fragments as they arrive. The channel is closed
	// when the transport signals end-of-stream or after a single terminal
	// error chunk.
	//
	// The caller must drain the channel or cancel ctx.
	Stream(ctx context.Context, req *CompletionRequest) <-chan StreamChunk

	// EstimateCost approximates the token counts and price of a request.
	EstimateCost(ctx context.Context, req *CompletionRequest) (*CostEstimate, error)

	// HealthCheck composes ValidateCredential and ListModels into a verdict
	// together with a snapshot of Metrics.
	HealthCheck(ctx context.Context) HealthStatus

	// Metrics returns a snapshot of the provider's own counters.
	Metrics() Metrics

	// Name returns the configured instance name.
	Name() string

	// Kind returns the provider kind (e.g., "deepseek").
	Kind() string

	// Close releases transport resources. The provider must not be used
	// afterwards.
	Close() error
}
