package providers

import (
	"strings"
	"testing"
	"time"

	"deckforge-hq/atlas/pkg/providers"
)

// TestConfig returns a provider configuration pointed at baseURL with a
// millisecond retry ladder.
func TestConfig(name, baseURL string) providers.Config {
	return providers.Config{
		Name:        name,
		Kind:        "deepseek",
		APIKey:      "sk-test-key-123456",
		BaseURL:     baseURL,
		MaxRetries:  3,
		Timeout:     2 * time.Second,
		RetryDelays: []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond},
	}
}

// TestCompletionRequest creates a content generation request.
func TestCompletionRequest(prompt string) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Prompt:        prompt,
		OperationType: providers.OperationContentGeneration,
		MaxTokens:     100,
	}
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	now time.Time
}

// NewFakeClock creates a clock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time { return c.now }

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// CollectStream drains a stream, returning the concatenated content and the
// terminal error, if any.
func CollectStream(t *testing.T, chunks <-chan providers.StreamChunk) (string, error) {
	t.Helper()

	var (
		b   strings.Builder
		err error
	)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return b.String(), err
			}
			if chunk.Err != nil {
				err = chunk.Err
				continue
			}
			b.WriteString(chunk.Content)
		case <-timeout:
			t.Fatal("stream did not close")
			return b.String(), err
		}
	}
}
