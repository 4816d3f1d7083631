package deepseek

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckforge-hq/atlas/pkg/providers"
)

func replyWith(content string, total int) *chatResponse {
	raw := &chatResponse{ID: "req-1", Created: 42}
	raw.Choices = append(raw.Choices, struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}{FinishReason: "stop"})
	raw.Choices[0].Message.Content = content
	raw.Usage.TotalTokens = total
	return raw
}

func TestBuildRequest(t *testing.T) {
	req := &providers.CompletionRequest{
		Prompt:        "Suggest a layout",
		OperationType: providers.OperationLayoutOptimization,
		MaxTokens:     10000,
		Temperature:   0.2,
	}

	payload := buildRequest("deepseek-coder", req, false)
	assert.Equal(t, "deepseek-coder", payload.Model)
	assert.Equal(t, 4096, payload.MaxTokens)
	assert.Equal(t, 0.2, payload.Temperature)
	assert.False(t, payload.Stream)
	require.NotNil(t, payload.ResponseFormat)
	assert.Equal(t, "json_object", payload.ResponseFormat.Type)

	require.Len(t, payload.Messages, 2)
	assert.Equal(t, "system", payload.Messages[0].Role)
	assert.Equal(t, SystemPrompt(providers.OperationLayoutOptimization), payload.Messages[0].Content)
	assert.Equal(t, "user", payload.Messages[1].Role)
	assert.Equal(t, "Suggest a layout", payload.Messages[1].Content)

	streaming := buildRequest("deepseek-chat", &providers.CompletionRequest{Prompt: "x"}, true)
	assert.True(t, streaming.Stream)
	assert.Nil(t, streaming.ResponseFormat)
	assert.Equal(t, providers.DefaultMaxTokens, streaming.MaxTokens)
	assert.Equal(t, providers.DefaultTemperature, streaming.Temperature)
}

func TestParseResponse(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		_, err := parseResponse("p", Kind, DefaultModel, &chatResponse{})
		require.Error(t, err)
		assert.Equal(t, providers.KindModel, providers.KindOf(err))
	})

	t.Run("plain text", func(t *testing.T) {
		resp, err := parseResponse("p", Kind, DefaultModel, replyWith("just text", 10))
		require.NoError(t, err)
		assert.Equal(t, "just text", resp.Content)
		assert.Equal(t, 0.5, resp.Confidence)
		assert.Equal(t, "AI-generated response", resp.Reasoning)
		assert.Empty(t, resp.Alternatives)
		assert.NotNil(t, resp.Alternatives)
		assert.Equal(t, "req-1", resp.Metadata["request_id"])
		assert.Equal(t, int64(42), resp.Metadata["created"])
	})

	t.Run("defaults when fields are missing", func(t *testing.T) {
		resp, err := parseResponse("p", Kind, DefaultModel, replyWith(`{"operation":"STYLE"}`, 10))
		require.NoError(t, err)
		assert.Equal(t, `{"operation":"STYLE"}`, resp.Content)
		assert.Equal(t, 0.7, resp.Confidence)
		assert.Equal(t, "AI-generated response", resp.Reasoning)
		assert.Equal(t, "STYLE", resp.Metadata["operation"])
	})

	t.Run("object content keeps json text", func(t *testing.T) {
		resp, err := parseResponse("p", Kind, DefaultModel, replyWith(`{"content":{"title":"Q3"}}`, 10))
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"Q3"}`, resp.Content)
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		resp, err := parseResponse("p", Kind, DefaultModel, replyWith(`{"content":"x","confidence":3}`, 10))
		require.NoError(t, err)
		assert.Equal(t, 1.0, resp.Confidence)

		resp, err = parseResponse("p", Kind, DefaultModel, replyWith(`{"content":"x","confidence":-1}`, 10))
		require.NoError(t, err)
		assert.Equal(t, 0.0, resp.Confidence)
	})

	t.Run("cost from usage", func(t *testing.T) {
		resp, err := parseResponse("p", Kind, DefaultModel, replyWith("x", 2000))
		require.NoError(t, err)
		assert.InDelta(t, 0.0028, resp.Usage.Cost, 1e-12)
		assert.False(t, resp.Usage.Error)
	})
}

func TestPrompts(t *testing.T) {
	t.Run("system prompt per operation", func(t *testing.T) {
		for op, specific := range operationPrompts {
			prompt := SystemPrompt(op)
			assert.True(t, strings.HasPrefix(prompt, basePrompt), op)
			assert.True(t, strings.HasSuffix(prompt, "\n\n"+specific), op)
		}
	})

	t.Run("unknown operation", func(t *testing.T) {
		assert.Equal(t, basePrompt+"\n\n", SystemPrompt("unknown"))
	})

	t.Run("user prompt with context", func(t *testing.T) {
		got := UserPrompt(&providers.CompletionRequest{
			Prompt:  "Improve this slide",
			Context: map[string]any{"slide": 3},
		})
		assert.Equal(t, "Improve this slide\nContext: {\n  \"slide\": 3\n}", got)
	})

	t.Run("user prompt without context", func(t *testing.T) {
		assert.Equal(t, "hi", UserPrompt(&providers.CompletionRequest{Prompt: "hi"}))
	})
}

func TestModels(t *testing.T) {
	assert.Equal(t, []string{"deepseek-chat", "deepseek-coder"}, KnownModels())
	assert.Equal(t, 16384, LookupModel("deepseek-coder").ContextLength)
	assert.Equal(t, LookupModel(DefaultModel), LookupModel("no-such-model"))
}
