package providers

import (
	"time"
)

// Operation types that select the system prompt template.
const (
	OperationContentGeneration  = "content_generation"
	OperationDesignSuggestion   = "design_suggestion"
	OperationLayoutOptimization = "layout_optimization"
	OperationTemplateSelection  = "template_selection"
	OperationAutomation         = "automation"
)

// Request defaults.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// CompletionRequest is the provider-agnostic request passed by callers.
// It is treated as immutable once handed to a provider or the Manager.
type CompletionRequest struct {
	// Prompt is the user prompt text
	Prompt string `json:"prompt"`

	// Context is free-form structured context serialized into the user prompt
	Context map[string]any `json:"context,omitempty"`

	// OperationType selects the operation-specific system prompt
	OperationType string `json:"operation_type"`

	// MaxTokens bounds the completion length (0 means DefaultMaxTokens)
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature is the sampling temperature (0 means DefaultTemperature)
	Temperature float64 `json:"temperature,omitempty"`

	// Stream requests incremental delivery
	Stream bool `json:"stream,omitempty"`

	// Metadata is caller-supplied data carried alongside the request
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EffectiveMaxTokens returns MaxTokens or the default.
func (r *CompletionRequest) EffectiveMaxTokens() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

// EffectiveTemperature returns Temperature or the default.
func (r *CompletionRequest) EffectiveTemperature() float64 {
	if r.Temperature == 0 {
		return DefaultTemperature
	}
	return r.Temperature
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost,omitempty"`
	Error            bool    `json:"error,omitempty"`
}

// CompletionResponse is the provider-agnostic response.
// It is produced once per request and not mutated after it is returned,
// apart from the Manager stamping Metadata before handing it to the caller.
type CompletionResponse struct {
	// Content is the generated content
	Content string `json:"content"`

	// Confidence is the model's self-reported confidence in [0,1]
	Confidence float64 `json:"confidence"`

	// Reasoning explains the suggestion
	Reasoning string `json:"reasoning"`

	// Alternatives are alternative suggestion objects
	Alternatives []map[string]any `json:"alternatives"`

	// Usage is the token accounting reported by the provider
	Usage Usage `json:"usage"`

	// Provider is the provider kind that produced the response
	Provider string `json:"provider"`

	// Model is the model that produced the response
	Model string `json:"model"`

	// Metadata carries provider and manager annotations
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StreamChunk is one element of a streamed completion.
// A chunk with a non-nil Err is always the last one sent.
type StreamChunk struct {
	// Content is the incremental text
	Content string

	// Err is set on the terminal chunk of a failed stream
	Err error
}

// ErrorChunk builds the terminal chunk for a failed stream.
func ErrorChunk(err error) StreamChunk {
	return StreamChunk{Content: "Error: " + err.Error(), Err: err}
}

// CostEstimate is the cost breakdown for a request.
type CostEstimate struct {
	EstimatedPromptTokens     int     `json:"estimated_prompt_tokens"`
	EstimatedCompletionTokens int     `json:"estimated_completion_tokens"`
	EstimatedTotalTokens      int     `json:"estimated_total_tokens"`
	EstimatedCostUSD          float64 `json:"estimated_cost_usd"`
	Model                     string  `json:"model"`
	Currency                  string  `json:"currency"`
}

// Health verdicts reported by HealthCheck.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the verdict of a provider health check.
type HealthStatus struct {
	Status          string  `json:"status"`
	Provider        string  `json:"provider"`
	CredentialValid bool    `json:"api_key_valid"`
	AvailableModels int     `json:"available_models"`
	Initialized     bool    `json:"initialized"`
	Metrics         Metrics `json:"metrics"`
	Error           string  `json:"error,omitempty"`
}

// Healthy reports whether the verdict is healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == StatusHealthy
}

// Metrics is a provider's own view of its traffic.
type Metrics struct {
	TotalRequests       int64         `json:"total_requests"`
	SuccessfulRequests  int64         `json:"successful_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	TotalTokensUsed     int64         `json:"total_tokens_used"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	RateLimitHits       int64         `json:"rate_limit_hits"`
	SuccessRate         float64       `json:"success_rate"`
	Provider            string        `json:"provider"`
	Model               string        `json:"model"`
}

// RateLimitConfig overrides the per-provider admission ceilings.
type RateLimitConfig struct {
	RequestsPerMinute int
	TokensPerMinute   int
}

// Config is the construction-time configuration of a provider.
// It is supplied once and never mutated.
type Config struct {
	// Name is the unique name of the provider instance
	Name string

	// Kind is the provider kind registered in the factory (e.g., "deepseek")
	Kind string

	// APIKey is the credential sent as a bearer token
	APIKey string

	// BaseURL overrides the provider's default endpoint
	BaseURL string

	// Model overrides the provider's default model
	Model string

	// MaxRetries is the total number of transport attempts (default: 3)
	MaxRetries int

	// Timeout bounds every transport call (default: 30s)
	Timeout time.Duration

	// RateLimit overrides the default admission ceilings
	RateLimit *RateLimitConfig

	// CustomHeaders are added to every outbound request
	CustomHeaders map[string]string

	// RetryDelays overrides the backoff ladder (default: 1,2,4,8,16s)
	RetryDelays []time.Duration
}

// Provider configuration defaults.
const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
)

// WithDefaults returns a copy of c with zero fields defaulted.
func (c Config) WithDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
