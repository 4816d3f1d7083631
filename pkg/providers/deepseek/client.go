package deepseek

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"deckforge-hq/atlas/pkg/limits/ratelimit"
	"deckforge-hq/atlas/pkg/providers"
	"deckforge-hq/atlas/pkg/telemetry/logging"
)

// Provider kinds served by this adapter.
const (
	Kind                 = "deepseek"
	KindOpenAICompatible = "openai-compatible"
)

// DefaultBaseURL is DeepSeek's public API endpoint.
const DefaultBaseURL = "https://api.deepseek.com/v1"

// UserAgent is sent with every request.
const UserAgent = "AI-PPT-System/1.0.0"

const (
	completionsPath = "/chat/completions"
	modelsPath      = "/models"
	tracerName      = "deckforge-hq/atlas/pkg/providers/deepseek"
)

// Option customizes a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the clock used by the rate limiter and latency measurement.
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.now = clock
		}
	}
}

// WithTransport replaces the pooled HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Provider) {
		p.transport = rt
	}
}

// Provider implements providers.Provider for DeepSeek-style APIs.
type Provider struct {
	config    providers.Config
	kind      string
	baseURL   string
	model     string
	logger    *zap.Logger
	now       func() time.Time
	transport http.RoundTripper
	tracer    trace.Tracer

	limiter  *ratelimit.FixedWindow
	counters providers.Counters

	mu          sync.RWMutex
	client      *providers.HTTPClient
	initialized bool
}

// New creates an uninitialized provider. Initialize must succeed before the
// provider receives traffic.
func New(cfg providers.Config, opts ...Option) (*Provider, error) {
	cfg = cfg.WithDefaults()
	if cfg.Kind == "" {
		cfg.Kind = Kind
	}

	if cfg.APIKey == "" {
		return nil, &providers.ConfigError{Provider: cfg.Name, Field: "api_key", Message: "API key is required"}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Kind != Kind {
			return nil, &providers.ConfigError{Provider: cfg.Name, Field: "base_url", Message: "base URL is required"}
		}
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	p := &Provider{
		config:  cfg,
		kind:    cfg.Kind,
		baseURL: baseURL,
		model:   model,
		logger:  zap.NewNop(),
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("provider", cfg.Name), zap.String("kind", p.kind))

	limits := ratelimit.Config{}
	if cfg.RateLimit != nil {
		limits.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
		limits.TokensPerMinute = cfg.RateLimit.TokensPerMinute
	}
	p.limiter = ratelimit.NewFixedWindow(limits, p.now)

	return p, nil
}

// Name returns the configured instance name.
func (p *Provider) Name() string { return p.config.Name }

// Kind returns the provider kind.
func (p *Provider) Kind() string { return p.kind }

// Model returns the model requests are sent to.
func (p *Provider) Model() string { return p.model }

// Initialize builds the transport (once) and validates the credential.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	if p.client == nil {
		headers := map[string]string{
			"Authorization": "Bearer " + p.config.APIKey,
			"Content-Type":  "application/json",
			"User-Agent":    UserAgent,
		}
		for k, v := range p.config.CustomHeaders {
			headers[k] = v
		}
		p.client = providers.NewHTTPClient(providers.HTTPClientConfig{
			Provider:  p.config.Name,
			BaseURL:   p.baseURL,
			Headers:   headers,
			Timeout:   p.config.Timeout,
			Transport: p.transport,
			Logger:    p.logger,
		})
	}
	p.mu.Unlock()

	if !p.ValidateCredential(ctx) {
		p.setInitialized(false)
		p.logger.Error("provider initialization failed", zap.String("reason", "invalid API key"))
		return providers.NewError(providers.KindAuthentication, p.config.Name, "invalid API key", nil)
	}

	p.setInitialized(true)
	p.logger.Info("provider initialized",
		zap.String("base_url", p.baseURL),
		zap.String("model", p.model),
	)
	return nil
}

// ValidateCredential sends a one-token probe. Only an authentication
// rejection (401/403) reports the credential invalid; other failures,
// including transport errors, report it valid.
func (p *Provider) ValidateCredential(ctx context.Context) bool {
	client := p.httpClient()
	if client == nil {
		return false
	}

	probe := &chatRequest{
		Model:     p.model,
		Messages:  []chatMessage{{Role: "user", Content: "test"}},
		MaxTokens: 1,
	}

	resp, err := client.Do(ctx, http.MethodPost, completionsPath, probe)
	if err != nil {
		p.logger.Warn("credential validation inconclusive", zap.Error(err))
		return true
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return false
	default:
		return true
	}
}

// ListModels returns the remote catalog or the built-in model names.
func (p *Provider) ListModels(ctx context.Context) []string {
	client := p.httpClient()
	if client == nil {
		return KnownModels()
	}

	var catalog struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := client.DoJSON(ctx, http.MethodGet, modelsPath, nil, &catalog); err != nil {
		p.logger.Debug("model catalog unavailable, using built-in list", zap.Error(err))
		return KnownModels()
	}

	models := make([]string, 0, len(catalog.Data))
	for _, m := range catalog.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	if len(models) == 0 {
		return KnownModels()
	}
	return models
}

// Complete runs one completion through admission control and the retry
// executor.
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	start := p.now()
	log := logging.FromContext(ctx, p.logger)

	ctx, span := p.tracer.Start(ctx, "deepseek.complete", trace.WithAttributes(
		attribute.String("provider.name", p.config.Name),
		attribute.String("provider.model", p.model),
		attribute.String("operation.type", req.OperationType),
	))
	defer span.End()

	resp, err := p.complete(ctx, log, span, req)
	elapsed := p.now().Sub(start)
	if err != nil {
		p.counters.Record(false, 0, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, providers.KindOf(err).String())
		log.Error("completion failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}

	p.counters.Record(true, resp.Usage.TotalTokens, elapsed)
	span.SetAttributes(attribute.Int("usage.total_tokens", resp.Usage.TotalTokens))
	return resp, nil
}

func (p *Provider) complete(ctx context.Context, log *zap.Logger, span trace.Span, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	client, err := p.readyClient()
	if err != nil {
		return nil, err
	}
	if err := p.admit(req); err != nil {
		return nil, err
	}

	payload := buildRequest(p.model, req, false)
	policy := providers.RetryPolicy{
		MaxAttempts: p.config.MaxRetries,
		Delays:      p.config.RetryDelays,
	}

	raw, err := providers.Retry(ctx, policy, log, func(ctx context.Context, attempt int) (*chatResponse, error) {
		span.AddEvent("attempt", trace.WithAttributes(attribute.Int("attempt", attempt)))
		var out chatResponse
		if err := client.DoJSON(ctx, http.MethodPost, completionsPath, payload, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, p.ownError(err)
	}

	return parseResponse(p.config.Name, p.kind, p.model, raw)
}

// Stream delivers content fragments. Errors, including admission failures,
// end the stream with a single error chunk.
func (p *Provider) Stream(ctx context.Context, req *providers.CompletionRequest) <-chan providers.StreamChunk {
	out := make(chan providers.StreamChunk)

	go func() {
		defer close(out)
		start := p.now()
		log := logging.FromContext(ctx, p.logger)

		send := func(chunk providers.StreamChunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(err error) {
			p.counters.Record(false, 0, p.now().Sub(start))
			log.Error("stream failed", zap.Error(err))
			send(providers.ErrorChunk(err))
		}

		client, err := p.readyClient()
		if err != nil {
			fail(err)
			return
		}
		if err := p.admit(req); err != nil {
			fail(err)
			return
		}

		resp, err := client.Do(ctx, http.MethodPost, completionsPath, buildRequest(p.model, req, true))
		if err != nil {
			fail(err)
			return
		}
		reader := providers.NewSSEReader(resp.Body)
		defer reader.Close()

		if resp.StatusCode != http.StatusOK {
			fail(&providers.Error{
				Kind:       providers.KindModel,
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("API returned status %d", resp.StatusCode),
			})
			return
		}

		for {
			data, err := reader.Next(ctx)
			if err == io.EOF {
				p.counters.Record(true, 0, p.now().Sub(start))
				return
			}
			if err != nil {
				fail(providers.NewError(providers.KindTransport, p.config.Name, "stream interrupted", err))
				return
			}

			var frame streamFrame
			if err := json.Unmarshal([]byte(data), &frame); err != nil || len(frame.Choices) == 0 {
				continue
			}
			if content := frame.Choices[0].Delta.Content; content != "" {
				if !send(providers.StreamChunk{Content: content}) {
					return
				}
			}
		}
	}()

	return out
}

// EstimateCost approximates prompt and completion tokens and prices them.
func (p *Provider) EstimateCost(_ context.Context, req *providers.CompletionRequest) (*providers.CostEstimate, error) {
	info := LookupModel(p.model)

	promptTokens := ratelimit.EstimatePromptTokens(req.Prompt)
	completionTokens := req.EffectiveMaxTokens()
	total := promptTokens + float64(completionTokens)

	return &providers.CostEstimate{
		EstimatedPromptTokens:     int(promptTokens),
		EstimatedCompletionTokens: completionTokens,
		EstimatedTotalTokens:      int(total),
		EstimatedCostUSD:          roundTo(total/1000*info.CostPer1KTokens, 6),
		Model:                     p.model,
		Currency:                  "USD",
	}, nil
}

// HealthCheck validates the credential and counts the available models.
func (p *Provider) HealthCheck(ctx context.Context) providers.HealthStatus {
	status := providers.HealthStatus{
		Provider:    p.kind,
		Initialized: p.isInitialized(),
	}

	status.CredentialValid = p.ValidateCredential(ctx)
	status.AvailableModels = len(p.ListModels(ctx))
	status.Metrics = p.Metrics()

	switch {
	case !status.Initialized:
		status.Status = providers.StatusUnhealthy
		status.Error = "provider not initialized"
	case !status.CredentialValid:
		status.Status = providers.StatusUnhealthy
		status.Error = "invalid API key"
	default:
		status.Status = providers.StatusHealthy
	}
	return status
}

// Metrics returns the provider's own counters.
func (p *Provider) Metrics() providers.Metrics {
	return p.counters.Snapshot(p.kind, p.model)
}

// Close releases pooled connections. Close is idempotent.
func (p *Provider) Close() error {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.initialized = false
	p.mu.Unlock()

	if client != nil {
		client.CloseIdleConnections()
		p.logger.Info("provider closed")
	}
	return nil
}

// admit applies local rate limiting.
func (p *Provider) admit(req *providers.CompletionRequest) error {
	res := p.limiter.Allow(ratelimit.EstimateTokens(req.Prompt, req.EffectiveMaxTokens()))
	if res.Allowed {
		return nil
	}

	p.counters.RateLimitHit()
	msg := fmt.Sprintf("Rate limit exceeded. Wait %.1f seconds", res.RetryAfter.Seconds())
	if res.Reason == ratelimit.ReasonTokens {
		msg = fmt.Sprintf("Token rate limit exceeded. Wait %.1f seconds", res.RetryAfter.Seconds())
	}
	return providers.RateLimited(p.config.Name, msg, res.RetryAfter)
}

func (p *Provider) readyClient() (*providers.HTTPClient, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil || !p.initialized {
		return nil, providers.NewError(providers.KindModel, p.config.Name, "provider not initialized", nil)
	}
	return p.client, nil
}

func (p *Provider) httpClient() *providers.HTTPClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

func (p *Provider) isInitialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}

func (p *Provider) setInitialized(v bool) {
	p.mu.Lock()
	p.initialized = v
	p.mu.Unlock()
}

// ownError attributes an executor error to this provider.
func (p *Provider) ownError(err error) error {
	if pe, ok := err.(*providers.Error); ok && pe.Provider == "" {
		cp := *pe
		cp.Provider = p.config.Name
		return &cp
	}
	return err
}
