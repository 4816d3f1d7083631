package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"deckforge-hq/atlas/pkg/cli"
	"deckforge-hq/atlas/pkg/providers"
)

// requestFlags are the flags that describe a completion request.
type requestFlags struct {
	prompt      string
	operation   string
	maxTokens   int
	temperature float64
	contextJSON string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "prompt text (defaults to the positional arguments)")
	cmd.Flags().StringVar(&f.operation, "operation", providers.OperationContentGeneration,
		"operation type: content_generation, design_suggestion, layout_optimization, template_selection, automation")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", providers.DefaultMaxTokens, "maximum completion tokens")
	cmd.Flags().Float64Var(&f.temperature, "temperature", providers.DefaultTemperature, "sampling temperature")
	cmd.Flags().StringVar(&f.contextJSON, "context", "", "JSON object passed as request context")
}

var operationTypes = map[string]bool{
	providers.OperationContentGeneration:  true,
	providers.OperationDesignSuggestion:   true,
	providers.OperationLayoutOptimization: true,
	providers.OperationTemplateSelection:  true,
	providers.OperationAutomation:         true,
}

// build assembles the request. Positional args are joined into the prompt
// when --prompt is empty.
func (f *requestFlags) build(args []string, stream bool) (*providers.CompletionRequest, error) {
	prompt := f.prompt
	if prompt == "" {
		prompt = strings.Join(args, " ")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, cli.NewConfigError("prompt", "a prompt is required")
	}
	if !operationTypes[f.operation] {
		return nil, cli.NewConfigError("operation", "unknown operation type "+f.operation)
	}
	if f.maxTokens <= 0 {
		return nil, cli.NewConfigError("max-tokens", "must be positive")
	}

	req := &providers.CompletionRequest{
		Prompt:        prompt,
		OperationType: f.operation,
		MaxTokens:     f.maxTokens,
		Temperature:   f.temperature,
		Stream:        stream,
	}
	if f.contextJSON != "" {
		if err := json.Unmarshal([]byte(f.contextJSON), &req.Context); err != nil {
			return nil, cli.NewConfigError("context", "invalid JSON object: "+err.Error())
		}
	}
	return req, nil
}
