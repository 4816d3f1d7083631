package deepseek

import "sort"

// ModelInfo describes the capabilities and price of a model.
type ModelInfo struct {
	MaxTokens         int
	ContextLength     int
	CostPer1KTokens   float64
	SupportsStreaming bool
}

// DefaultModel is used when the configuration does not name a model.
const DefaultModel = "deepseek-chat"

var modelTable = map[string]ModelInfo{
	"deepseek-chat": {
		MaxTokens:         4096,
		ContextLength:     32768,
		CostPer1KTokens:   0.0014,
		SupportsStreaming: true,
	},
	"deepseek-coder": {
		MaxTokens:         4096,
		ContextLength:     16384,
		CostPer1KTokens:   0.0014,
		SupportsStreaming: true,
	},
}

// LookupModel returns the table entry for model, falling back to the default
// model's entry for unknown names.
func LookupModel(model string) ModelInfo {
	if info, ok := modelTable[model]; ok {
		return info
	}
	return modelTable[DefaultModel]
}

// KnownModels returns the built-in model names in sorted order.
func KnownModels() []string {
	names := make([]string, 0, len(modelTable))
	for name := range modelTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
