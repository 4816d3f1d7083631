package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Endpoint paths served by DeepSeek-compatible APIs.
const (
	CompletionsPath = "/chat/completions"
	ModelsPath      = "/models"
)

// MockServer is a fake DeepSeek-compatible HTTP API for testing provider
// adapters. Each path has a default response and an optional queue of
// one-shot responses that are served first, in order.
type MockServer struct {
	server   *httptest.Server
	defaults map[string]MockResponse
	queued   map[string][]MockResponse
	requests []RecordedRequest
	mu       sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode   int
	Body         interface{}
	Delay        time.Duration
	Headers      map[string]string
	StreamChunks []string // SSE data payloads, followed by [DONE]
	NoDone       bool     // end the stream without the [DONE] sentinel
}

// RecordedRequest is a request received by the server.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into a generic map.
func (r RecordedRequest) JSON() map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(r.Body, &out)
	return out
}

// NewMockServer creates a server that answers completions with a fixed
// successful reply and serves a two-model catalog.
func NewMockServer() *MockServer {
	ms := &MockServer{
		defaults: map[string]MockResponse{
			CompletionsPath: {StatusCode: http.StatusOK, Body: CompletionBody(`{"content":"ok","confidence":0.9}`, 10, 20)},
			ModelsPath:      {StatusCode: http.StatusOK, Body: ModelsBody("deepseek-chat", "deepseek-coder")},
		},
		queued: make(map[string][]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse replaces the default response for path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.defaults[path] = response
}

// Enqueue adds one-shot responses for path, served before the default.
func (ms *MockServer) Enqueue(path string, responses ...MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.queued[path] = append(ms.queued[path], responses...)
}

// GetRequestCount returns the number of requests received on path.
// An empty path counts every request.
func (ms *MockServer) GetRequestCount(path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if path == "" {
		return len(ms.requests)
	}
	n := 0
	for _, r := range ms.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Requests returns a copy of the requests received so far.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]RecordedRequest, len(ms.requests))
	copy(out, ms.requests)
	return out
}

// LastRequest returns the most recent request on path.
func (ms *MockServer) LastRequest(path string) (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i := len(ms.requests) - 1; i >= 0; i-- {
		if ms.requests[i].Path == path {
			return ms.requests[i], true
		}
	}
	return RecordedRequest{}, false
}

// ResetRequestCount forgets recorded requests.
func (ms *MockServer) ResetRequestCount() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.requests = nil
}

func (ms *MockServer) next(path string) (MockResponse, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if q := ms.queued[path]; len(q) > 0 {
		ms.queued[path] = q[1:]
		return q[0], true
	}
	resp, ok := ms.defaults[path]
	return resp, ok
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	ms.mu.Unlock()

	response, ok := ms.next(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		ms.handleStream(w, response)
		return
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// handleStream writes Server-Sent Events frames.
func (ms *MockServer) handleStream(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	for _, chunk := range response.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}

	if !response.NoDone {
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// CompletionBody builds a chat completions reply carrying content.
func CompletionBody(content string, promptTokens, completionTokens int) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": int64(1700000000),
		"model":   "deepseek-chat",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
}

// ModelsBody builds a model catalog reply.
func ModelsBody(ids ...string) map[string]interface{} {
	data := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]interface{}{"id": id, "object": "model"})
	}
	return map[string]interface{}{"object": "list", "data": data}
}

// StreamFrame builds one streaming delta payload.
func StreamFrame(delta string) string {
	frame := map[string]interface{}{
		"object": "chat.completion.chunk",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{"content": delta},
			},
		},
	}

	bytes, _ := json.Marshal(frame)
	return string(bytes)
}

// MockErrorResponse creates an error reply with the given status.
func MockErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"type":    "api_error",
			},
		},
	}
}
