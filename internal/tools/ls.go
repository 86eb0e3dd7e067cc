package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/codefionn/codeflink/internal/fs"
)

// LsTool lists directory contents
type LsTool struct {
	fs fs.FileSystem
}

func NewLsTool(filesystem fs.FileSystem) *LsTool {
	return &LsTool{fs: filesystem}
}

func (t *LsTool) Name() string { return ToolNameLs }

func (t *LsTool) Description() string {
	return "List the contents of a directory. Entries are prefixed with [DIR] or [FILE]."
}

func (t *LsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory path to list (optional, defaults to current directory)",
			},
		},
	}
}

func (t *LsTool) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	path := GetStringParam(params, "path", ".")

	info, err := t.fs.Stat(ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return errorResult("Path does not exist: %s", path)
		}
		return errorResult("Failed to read directory: %v", err)
	}
	if !info.IsDir {
		return errorResult("Path is not a directory: %s", path)
	}

	entries, err := t.fs.ListDir(ctx, path)
	if err != nil {
		return errorResult("Failed to read directory: %v", err)
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		prefix := "[FILE]"
		if entry.IsDir {
			prefix = "[DIR]"
		}
		lines = append(lines, prefix+" "+filepath.Base(entry.Path))
	}

	return &ToolResult{Result: strings.Join(lines, "\n")}
}
