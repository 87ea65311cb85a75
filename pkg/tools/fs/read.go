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

// ReadTool implements fs:read, which returns the contents of a file.
type ReadTool struct {
	Sandbox *sandbox.Sandbox
}

func (c *ReadTool) Name() string        { return "fs:read" }
func (c *ReadTool) Description() string { return "Read the content from a file" }
func (c *ReadTool) Namespace() string   { return "fs" }

func (c *ReadTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"path": {Type: "string", Description: "File to read"},
	}, "path")
}

func (c *ReadTool) Execute(_ gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	filePath, err := input.RequireString("path")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:read: %w", err)
	}

	filePath, err = filepath.Abs(filePath)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:read: resolve path: %w", err)
	}

	var data []byte
	if c.Sandbox != nil {
		data, err = c.Sandbox.ReadFile(filePath)
	} else {
		data, err = os.ReadFile(filePath)
	}
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:read: %w", err)
	}

	env := agctx.NewEnvelope(string(data), "text/plain", "fs:read")
	env.Meta.Tags["path"] = filePath
	env.Meta.Tags["size"] = fmt.Sprintf("%d", len(data))
	return env, nil
}
