package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/codefionn/codeflink/internal/fs"
	"github.com/codefionn/codeflink/internal/logger"
)

// Tool names exposed to the model
const (
	ToolNameLs    = "ls"
	ToolNameView  = "view"
	ToolNameWrite = "write"
)

// Tool represents an LLM-callable tool
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, params map[string]interface{}) *ToolResult
}

// ToolResult represents the result of a tool execution.
// Exactly one of Result or Error is meaningful.
type ToolResult struct {
	Result string
	Error  string
}

// IsError reports whether the execution failed
func (r *ToolResult) IsError() bool {
	return r.Error != ""
}

// Output returns the text that should be reported back to the model
func (r *ToolResult) Output() string {
	if r.IsError() {
		return r.Error
	}
	return r.Result
}

func errorResult(format string, args ...interface{}) *ToolResult {
	return &ToolResult{Error: fmt.Sprintf(format, args...)}
}

// Registry manages available tools
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDefaultRegistry creates a registry with the standard filesystem tools
func NewDefaultRegistry(filesystem fs.FileSystem) *Registry {
	r := NewRegistry()
	r.Register(NewLsTool(filesystem))
	r.Register(NewViewTool(filesystem))
	r.Register(NewWriteTool(filesystem))
	return r
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools sorted by name
func (r *Registry) List() []Tool {
	result := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Execute runs the named tool with raw JSON arguments. Unknown tools and
// malformed argument payloads come back as error results, never as a Go error,
// so the caller can always report something to the model.
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) *ToolResult {
	tool, ok := r.tools[name]
	if !ok {
		return errorResult("Unknown tool: %s", name)
	}

	params := make(map[string]interface{})
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
			return errorResult("Invalid JSON arguments for %s: %v", name, err)
		}
	}

	logger.Debug("executing tool %s with args: %s", name, argsJSON)
	return tool.Execute(ctx, params)
}
