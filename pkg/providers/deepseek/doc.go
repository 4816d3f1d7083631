// Package deepseek implements the provider contract over DeepSeek's
// OpenAI-compatible chat completions API.
//
// # Features
//
//   - Bearer authentication with optional custom headers
//   - Local admission control (requests and estimated tokens per minute)
//   - Ladder backoff over transport failures
//   - JSON-mode replies decoded into content, reasoning, confidence and alternatives
//   - Server-Sent Events streaming
//   - Cost estimates from a per-model price table
//
// # Usage
//
//	p, err := deepseek.New(providers.Config{
//	    Name:   "primary",
//	    Kind:   deepseek.Kind,
//	    APIKey: os.Getenv("DEEPSEEK_API_KEY"),
//	}, deepseek.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := p.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer p.Close()
//
// The same adapter serves any OpenAI-compatible endpoint when constructed
// with KindOpenAICompatible and an explicit BaseURL.
package deepseek
