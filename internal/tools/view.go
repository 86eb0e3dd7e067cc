package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/codefionn/codeflink/internal/consts"
	"github.com/codefionn/codeflink/internal/fs"
)

// ViewTool reads a file and returns its content
type ViewTool struct {
	fs fs.FileSystem
}

func NewViewTool(filesystem fs.FileSystem) *ViewTool {
	return &ViewTool{fs: filesystem}
}

func (t *ViewTool) Name() string { return ToolNameView }

func (t *ViewTool) Description() string {
	return "View the contents of a file."
}

func (t *ViewTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the file to view",
			},
		},
		"required": []string{"file_path"},
	}
}

func (t *ViewTool) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	filePath, err := RequireStringParam(params, "file_path")
	if err != nil {
		return &ToolResult{Error: err.Error()}
	}

	info, err := t.fs.Stat(ctx, filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return errorResult("File does not exist: %s", filePath)
		}
		return errorResult("Failed to read file: %v", err)
	}
	if info.IsDir {
		return errorResult("Path is not a file: %s", filePath)
	}

	data, err := t.fs.ReadFile(ctx, filePath)
	if err != nil {
		return errorResult("Failed to read file: %v", err)
	}

	if len(data) > consts.MaxViewBytes {
		truncated := data[:consts.MaxViewBytes]
		notice := fmt.Sprintf("\n... (truncated, file is %d bytes)", len(data))
		return &ToolResult{Result: string(truncated) + notice}
	}

	return &ToolResult{Result: string(data)}
}
