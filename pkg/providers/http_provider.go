package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Connection limits of the pooled transport.
const (
	DefaultMaxConnections          = 10
	DefaultMaxKeepaliveConnections = 5
	DefaultIdleConnTimeout         = 90 * time.Second
)

const tracerName = "deckforge-hq/atlas/pkg/providers"

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	// Provider is the provider instance name used in errors and logs
	Provider string

	// BaseURL is prefixed to every request path
	BaseURL string

	// Headers are sent with every request (auth, content type, user agent, custom)
	Headers map[string]string

	// Timeout bounds every request
	Timeout time.Duration

	// Transport overrides the pooled transport (tests)
	Transport http.RoundTripper

	// Logger receives request-level debug logs
	Logger *zap.Logger
}

// HTTPClient is the shared HTTP transport for HTTP-based provider adapters.
// It provides connection pooling, default headers, timeout handling and
// failure classification. Retrying is the caller's concern (see Retry).
//
// Concrete adapters hold one HTTPClient per provider instance.
type HTTPClient struct {
	provider string
	baseURL  string
	headers  map[string]string
	client   *http.Client
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewHTTPClient creates a client with a pooled transport.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			MaxConnsPerHost:     DefaultMaxConnections,
			MaxIdleConns:        DefaultMaxKeepaliveConnections,
			MaxIdleConnsPerHost: DefaultMaxKeepaliveConnections,
			IdleConnTimeout:     DefaultIdleConnTimeout,
			ForceAttemptHTTP2:   true,
		}
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPClient{
		provider: cfg.Provider,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		headers:  headers,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Do performs one HTTP request against path and returns the raw response.
// Transport-level failures (connection errors, timeouts) are returned as
// KindTransport errors; the response status is not inspected.
//
// The caller must close the response body.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, NewError(KindModel, c.provider, "failed to marshal request", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	url := c.baseURL + path
	ctx, span := c.tracer.Start(ctx, "provider.http",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", c.provider),
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, NewError(KindModel, c.provider, "failed to create request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logger.Debug("sending request to provider",
		zap.String("provider", c.provider),
		zap.String("method", method),
		zap.String("url", url),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, c.transportError(err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

// DoJSON performs a JSON request and decodes a 2xx response into out.
// Non-2xx responses are classified with ClassifyStatus.
func (c *HTTPClient) DoJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewError(KindTransport, c.provider, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ClassifyStatus(c.provider, resp, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return NewError(KindModel, c.provider, "failed to decode response", err)
		}
	}
	return nil
}

// CloseIdleConnections releases pooled connections.
func (c *HTTPClient) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

func (c *HTTPClient) transportError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewError(KindTransport, c.provider, "request timeout", err)
	}
	return NewError(KindTransport, c.provider, "network error", err)
}

// ClassifyStatus maps a non-2xx response to an error kind:
// 401/403 are authentication failures, 429 is rate limiting, 5xx is a
// transport failure and everything else is a model failure.
func ClassifyStatus(provider string, resp *http.Response, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	e := &Error{Provider: provider, StatusCode: resp.StatusCode, Message: msg}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.Kind = KindAuthentication
		if e.Message == "" {
			e.Message = "invalid API key"
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		if e.Message == "" {
			e.Message = "rate limit exceeded"
		}
	case resp.StatusCode >= 500:
		e.Kind = KindTransport
		if e.Message == "" {
			e.Message = fmt.Sprintf("server error: %d", resp.StatusCode)
		}
	default:
		e.Kind = KindModel
		if e.Message == "" {
			e.Message = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
	}
	return e
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
