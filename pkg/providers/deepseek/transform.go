package deepseek

import (
	"bytes"
	"encoding/json"
	"math"

	"deckforge-hq/atlas/pkg/providers"
)

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the non-streaming chat completions reply.
type chatResponse struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// streamFrame is one SSE data frame of a streaming reply.
type streamFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// structuredReply is the JSON shape the system prompt asks the model for.
type structuredReply struct {
	Operation    string           `json:"operation"`
	Type         string           `json:"type"`
	Content      json.RawMessage  `json:"content"`
	Reasoning    *string          `json:"reasoning"`
	Confidence   *float64         `json:"confidence"`
	Alternatives []map[string]any `json:"alternatives"`
}

// Reply defaults.
const (
	defaultConfidence      = 0.7
	unstructuredConfidence = 0.5
	defaultReasoning       = "AI-generated response"
)

// buildRequest builds the chat completions payload.
func buildRequest(model string, req *providers.CompletionRequest, stream bool) *chatRequest {
	maxTokens := req.EffectiveMaxTokens()
	if limit := LookupModel(model).MaxTokens; maxTokens > limit {
		maxTokens = limit
	}

	payload := &chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(req.OperationType)},
			{Role: "user", Content: UserPrompt(req)},
		},
		MaxTokens:   maxTokens,
		Temperature: req.EffectiveTemperature(),
		Stream:      stream,
	}
	if !stream {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return payload
}

// parseResponse converts a chat completions reply into the provider-agnostic
// response. A reply without choices is a model failure.
func parseResponse(provider, kind, model string, raw *chatResponse) (*providers.CompletionResponse, error) {
	if len(raw.Choices) == 0 {
		return nil, providers.NewError(providers.KindModel, provider, "response processing failed: no choices", nil)
	}
	choice := raw.Choices[0]
	text := choice.Message.Content

	resp := &providers.CompletionResponse{
		Content:      text,
		Confidence:   unstructuredConfidence,
		Reasoning:    defaultReasoning,
		Alternatives: []map[string]any{},
		Usage: providers.Usage{
			PromptTokens:     raw.Usage.PromptTokens,
			CompletionTokens: raw.Usage.CompletionTokens,
			TotalTokens:      raw.Usage.TotalTokens,
			Cost:             float64(raw.Usage.TotalTokens) / 1000 * LookupModel(model).CostPer1KTokens,
		},
		Provider: kind,
		Model:    model,
		Metadata: map[string]any{
			"finish_reason": choice.FinishReason,
			"request_id":    raw.ID,
			"created":       raw.Created,
		},
	}

	var reply structuredReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		// Not JSON mode output; keep the raw text.
		return resp, nil
	}

	resp.Content = replyContent(reply.Content, text)
	resp.Confidence = defaultConfidence
	if reply.Confidence != nil {
		resp.Confidence = clamp01(*reply.Confidence)
	}
	if reply.Reasoning != nil {
		resp.Reasoning = *reply.Reasoning
	}
	if reply.Alternatives != nil {
		resp.Alternatives = reply.Alternatives
	}
	if reply.Operation != "" {
		resp.Metadata["operation"] = reply.Operation
	}
	if reply.Type != "" {
		resp.Metadata["type"] = reply.Type
	}
	return resp, nil
}

// replyContent returns the string form of the "content" field. Missing or
// null content falls back to the whole reply; non-string values keep their
// JSON text.
func replyContent(raw json.RawMessage, fallback string) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fallback
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
