// Package env provides env:set, which installs an API key into the
// process environment for providers that read it at call time.
package env

import (
	gocontext "context"
	"fmt"
	"os"
	"regexp"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/tools"
)

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SetTool implements env:set.
type SetTool struct{}

func (c *SetTool) Name() string        { return "env:set" }
func (c *SetTool) Description() string { return "Set an environment variable holding an API key" }
func (c *SetTool) Namespace() string   { return "env" }

func (c *SetTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"name":  {Type: "string", Description: "Environment variable name, e.g. GEMINI_API_KEY"},
		"value": {Type: "string", Description: "The API key"},
	}, "name", "value")
}

func (c *SetTool) Execute(_ gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	name, err := input.RequireString("name")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("env:set: %w", err)
	}
	value, err := input.RequireString("value")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("env:set: %w", err)
	}
	if !validName.MatchString(name) {
		return agctx.Envelope{}, fmt.Errorf("env:set: invalid variable name %q", name)
	}
	if err := os.Setenv(name, value); err != nil {
		return agctx.Envelope{}, fmt.Errorf("env:set: %w", err)
	}

	env := agctx.NewEnvelope("Successfully installed API key", "text/plain", "env:set")
	env.Meta.Tags["name"] = name
	return env, nil
}
