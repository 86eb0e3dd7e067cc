package tools

import (
	"context"

	"github.com/codefionn/codeflink/internal/fs"
)

// WriteTool writes content to a file, creating parent directories as needed
type WriteTool struct {
	fs fs.FileSystem
}

func NewWriteTool(filesystem fs.FileSystem) *WriteTool {
	return &WriteTool{fs: filesystem}
}

func (t *WriteTool) Name() string { return ToolNameWrite }

func (t *WriteTool) Description() string {
	return "Write content to a file, overwriting it if it exists. Parent directories are created as needed."
}

func (t *WriteTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the file to write",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to write to the file",
			},
		},
		"required": []string{"file_path", "content"},
	}
}

func (t *WriteTool) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	filePath, err := RequireStringParam(params, "file_path")
	if err != nil {
		return &ToolResult{Error: err.Error()}
	}
	content, err := RequireStringParam(params, "content")
	if err != nil {
		return &ToolResult{Error: err.Error()}
	}

	if err := t.fs.WriteFile(ctx, filePath, []byte(content)); err != nil {
		return errorResult("Failed to write to file %s: %v", filePath, err)
	}

	return &ToolResult{Result: "Successfully wrote to file " + filePath}
}
