package fs

import (
	gocontext "context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cgast/edgebench/internal/sandbox"
	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/tools"
)

// WriteTool implements fs:write, which writes content to a file.
type WriteTool struct {
	Sandbox *sandbox.Sandbox
}

func (c *WriteTool) Name() string        { return "fs:write" }
func (c *WriteTool) Description() string { return "Write content to a file, creating parent directories" }
func (c *WriteTool) Namespace() string   { return "fs" }

func (c *WriteTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"path":    {Type: "string", Description: "File to write"},
		"content": {Type: "string", Description: "Content to write"},
	}, "path", "content")
}

func (c *WriteTool) Execute(_ gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	filePath, err := input.RequireString("path")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:write: %w", err)
	}
	content, ok := input.Args()["content"].(string)
	if !ok {
		return agctx.Envelope{}, fmt.Errorf("fs:write: missing required argument %q", "content")
	}

	filePath, err = filepath.Abs(filePath)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:write: resolve path: %w", err)
	}
	if c.Sandbox != nil {
		if err := c.Sandbox.CheckPath(filePath); err != nil {
			return agctx.Envelope{}, fmt.Errorf("fs:write: %w", err)
		}
		if err := c.Sandbox.CheckFileSize(int64(len(content))); err != nil {
			return agctx.Envelope{}, fmt.Errorf("fs:write: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:write: create dir: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:write: %w", err)
	}

	result := map[string]any{
		"path":          filePath,
		"bytes_written": len(content),
	}
	env := agctx.NewEnvelope(result, "application/json", "fs:write")
	env.Meta.Tags["path"] = filePath
	return env, nil
}
