package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// Custom attribute keys use the "atlas.*" namespace:
//   - atlas.provider: Provider instance name
//   - atlas.model: Model name
//   - atlas.strategy: Load balancing strategy
//   - atlas.cost.*: Request cost
//   - atlas.tokens.*: Token counts

// Common attribute keys used throughout the system
const (
	// Provider attributes
	AttrProvider     = "atlas.provider"
	AttrProviderKind = "atlas.provider.kind"
	AttrModel        = "atlas.model"

	// Request attributes
	AttrRequestID = "atlas.request_id"
	AttrOperation = "atlas.operation"
	AttrStream    = "atlas.stream"

	// Routing attributes
	AttrStrategy   = "atlas.strategy"
	AttrPreferred  = "atlas.preferred_provider"
	AttrCandidates = "atlas.candidates"
	AttrAttempt    = "atlas.attempt"

	// Token attributes
	AttrTokensPrompt     = "atlas.tokens.prompt"
	AttrTokensCompletion = "atlas.tokens.completion"
	AttrTokensTotal      = "atlas.tokens.total"

	// Cost attributes
	AttrCost         = "atlas.cost.total"
	AttrCostCurrency = "atlas.cost.currency"

	// Error attributes
	AttrErrorType    = "atlas.error.type"
	AttrErrorMessage = "error.message"
)

// Span events recorded by the manager.
const (
	EventFailover  = "failover"
	EventExhausted = "providers_exhausted"
)

// SetProviderAttributes sets provider-related attributes on a span.
//
// Example:
//
//	SetProviderAttributes(span, "primary", "deepseek-chat")
func SetProviderAttributes(span trace.Span, provider, model string) {
	attrs := []attribute.KeyValue{attribute.String(AttrProvider, provider)}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrModel, model))
	}
	span.SetAttributes(attrs...)
}

// SetTokenAttributes sets token count attributes on a span.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens, totalTokens int) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Int(AttrTokensTotal, totalTokens),
	)
}

// SetCostAttributes sets cost-related attributes on a span.
func SetCostAttributes(span trace.Span, cost float64, currency string) {
	span.SetAttributes(
		attribute.Float64(AttrCost, cost),
		attribute.String(AttrCostCurrency, currency),
	)
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "rate_limit")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddFailoverEvent records a move from one provider to the next.
func AddFailoverEvent(span trace.Span, from, to string, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("from", from),
		attribute.String("to", to),
	}
	if err != nil {
		attrs = append(attrs, attribute.String(AttrErrorMessage, err.Error()))
	}
	span.AddEvent(EventFailover, trace.WithAttributes(attrs...))
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithProvider adds provider and kind attributes.
func (ab *AttributeBuilder) WithProvider(provider, kind string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrProvider, provider),
		attribute.String(AttrProviderKind, kind),
	)
	return ab
}

// WithRequest adds request-related attributes.
func (ab *AttributeBuilder) WithRequest(requestID, operation string, stream bool) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrOperation, operation),
		attribute.Bool(AttrStream, stream),
	)
	return ab
}

// WithRouting adds strategy and candidate attributes.
func (ab *AttributeBuilder) WithRouting(strategy, preferred string, candidates []string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrStrategy, strategy),
		attribute.StringSlice(AttrCandidates, candidates),
	)
	if preferred != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrPreferred, preferred))
	}
	return ab
}

// WithAttempt adds the 1-based failover attempt number.
func (ab *AttributeBuilder) WithAttempt(attempt int) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.Int(AttrAttempt, attempt))
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		// Fall back to string representation
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
