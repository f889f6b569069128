package usage

// ToolEstimate holds the rough token cost of a single tool invocation.
// These are heuristics for auto-logging via hooks - the goal is ballpark
// tracking without manual input.
type ToolEstimate struct {
	InputTokens  int64
	OutputTokens int64
}

var toolEstimates = map[string]ToolEstimate{
	"Read":            {InputTokens: 2000, OutputTokens: 500},
	"Write":           {InputTokens: 3000, OutputTokens: 200},
	"Edit":            {InputTokens: 3000, OutputTokens: 1000},
	"Bash":            {InputTokens: 1500, OutputTokens: 800},
	"Grep":            {InputTokens: 1000, OutputTokens: 500},
	"Glob":            {InputTokens: 800, OutputTokens: 400},
	"WebFetch":        {InputTokens: 2000, OutputTokens: 1500},
	"WebSearch":       {InputTokens: 1500, OutputTokens: 1000},
	"Task":            {InputTokens: 5000, OutputTokens: 3000},
	"NotebookEdit":    {InputTokens: 2500, OutputTokens: 800},
	"AskUserQuestion": {InputTokens: 500, OutputTokens: 200},
}

var defaultToolEstimate = ToolEstimate{InputTokens: 1500, OutputTokens: 600}

// EstimateToolTokens returns the token estimate for a named tool,
// falling back to a generic estimate for unknown tools.
// This is a PURE function.
func EstimateToolTokens(toolName string) ToolEstimate {
	if est, ok := toolEstimates[toolName]; ok {
		return est
	}
	return defaultToolEstimate
}
