package deepseek

import (
	"encoding/json"

	"deckforge-hq/atlas/pkg/providers"
)

const basePrompt = `You are an AI assistant specialized in PowerPoint presentation generation and editing.
You understand atomic operations for PPT creation and can suggest appropriate actions based on context.

Your responses should be in JSON format with the following structure:
{
    "operation": "ADD|MODIFY|DELETE|MOVE|STYLE",
    "type": "text|image|shape|chart|table|slide",
    "content": "specific content or action",
    "reasoning": "explanation of why this action is appropriate",
    "confidence": 0.0-1.0,
    "alternatives": [{"operation": "...", "type": "...", "content": "..."}]
}

Focus on creating professional, visually appealing presentations that follow design best practices.`

var operationPrompts = map[string]string{
	providers.OperationContentGeneration:  "Focus on generating relevant, engaging content for presentations.",
	providers.OperationDesignSuggestion:   "Suggest design improvements and visual enhancements.",
	providers.OperationLayoutOptimization: "Recommend layout changes for better visual hierarchy.",
	providers.OperationTemplateSelection:  "Suggest appropriate templates based on content type.",
	providers.OperationAutomation:         "Provide automated sequences of operations for efficient PPT creation.",
}

// SystemPrompt returns the system prompt for an operation type.
// Unknown operation types get the base prompt followed by an empty line.
func SystemPrompt(operationType string) string {
	return basePrompt + "\n\n" + operationPrompts[operationType]
}

// UserPrompt formats the request prompt with its serialized context.
func UserPrompt(req *providers.CompletionRequest) string {
	if len(req.Context) == 0 {
		return req.Prompt
	}
	data, err := json.MarshalIndent(req.Context, "", "  ")
	if err != nil {
		return req.Prompt
	}
	return req.Prompt + "\nContext: " + string(data)
}
