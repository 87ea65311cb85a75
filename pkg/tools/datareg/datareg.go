// Package datareg exposes the freshness registry as tools.
package datareg

import (
	gocontext "context"
	"fmt"
	"strings"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/freshness"
	"github.com/cgast/edgebench/pkg/tools"
)

// All returns every registry tool bound to reg.
func All(reg *freshness.Registry) []tools.Tool {
	return []tools.Tool{
		&UpdateTool{Registry: reg},
		&ListTool{Registry: reg},
		&ClearTool{Registry: reg},
		&FindTool{Registry: reg},
	}
}

// UpdateTool implements registry:update.
type UpdateTool struct {
	Registry *freshness.Registry
}

func (c *UpdateTool) Name() string { return "registry:update" }
func (c *UpdateTool) Description() string {
	return "Record a data directory's cache, format and status in the data registry"
}
func (c *UpdateTool) Namespace() string { return "registry" }

func (c *UpdateTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"data_directory":  {Type: "string", Description: "Data directory path"},
		"status":          {Type: "string", Description: "Status of data processing"},
		"cache_directory": {Type: "string", Description: "Cache directory path"},
		"data_format":     {Type: "string", Description: "Data format (e.g. pdf, csv)"},
	}, "data_directory", "status", "cache_directory", "data_format")
}

func (c *UpdateTool) Execute(_ gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	vals := make(map[string]string, 4)
	var missing []string
	for _, name := range c.InputSchema().Required {
		v := strings.TrimSpace(input.StringArg(name))
		if v == "" {
			missing = append(missing, name)
		}
		vals[name] = v
	}
	if len(missing) > 0 {
		return agctx.Envelope{}, fmt.Errorf("registry:update: provide data_directory, status, cache_directory and data_format (missing %s)",
			strings.Join(missing, ", "))
	}

	entry, err := c.Registry.Update(vals["data_directory"], vals["status"], vals["cache_directory"], vals["data_format"])
	if err != nil {
		return agctx.Envelope{}, err
	}

	env := agctx.NewEnvelope(entry, "application/json", "registry:update")
	env.Meta.Tags["data_dir"] = entry.DataDirectory
	return env, nil
}

// Listing is the rendered registry.
type Listing struct {
	YAML    string `json:"yaml"`
	Entries int    `json:"entries"`
}

func (l Listing) Text() string {
	if l.Entries == 0 {
		return "Registry is empty."
	}
	return l.YAML
}

// ListTool implements registry:list.
type ListTool struct {
	Registry *freshness.Registry
}

func (c *ListTool) Name() string        { return "registry:list" }
func (c *ListTool) Description() string { return "List every entry in the data registry" }
func (c *ListTool) Namespace() string   { return "registry" }

func (c *ListTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{})
}

func (c *ListTool) Execute(_ gocontext.Context, _ agctx.Envelope) (agctx.Envelope, error) {
	out, ok, err := c.Registry.List()
	if err != nil {
		return agctx.Envelope{}, err
	}
	listing := Listing{}
	if ok {
		listing = Listing{YAML: out, Entries: len(c.Registry.Entries())}
	}
	return agctx.NewEnvelope(listing, "application/yaml", "registry:list"), nil
}

// Cleared wraps a ClearResult with its text rendering.
type Cleared freshness.ClearResult

func (c Cleared) Text() string {
	var b strings.Builder
	if c.Existed {
		b.WriteString("Registry and cache cleared.")
	} else {
		b.WriteString("No registry file found.")
	}
	for _, f := range c.Failed {
		fmt.Fprintf(&b, "\nfailed to remove %s: %s", f.Path, f.Err)
	}
	return b.String()
}

// ClearTool implements registry:clear.
type ClearTool struct {
	Registry *freshness.Registry
}

func (c *ClearTool) Name() string { return "registry:clear" }
func (c *ClearTool) Description() string {
	return "Delete every registered cache directory and the registry itself"
}
func (c *ClearTool) Namespace() string { return "registry" }

func (c *ClearTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{})
}

func (c *ClearTool) Execute(_ gocontext.Context, _ agctx.Envelope) (agctx.Envelope, error) {
	res, err := c.Registry.Clear()
	if err != nil {
		return agctx.Envelope{}, err
	}
	env := agctx.NewEnvelope(Cleared(res), "application/json", "registry:clear")
	env.Meta.Tags["removed"] = fmt.Sprintf("%d", len(res.Removed))
	return env, nil
}

// Found is the result of registry:find.
type Found struct {
	Entry *freshness.Entry `json:"entry"`
	Query string           `json:"query"`
}

func (f Found) Text() string {
	if f.Entry == nil {
		return fmt.Sprintf("No registry entry for %s.", f.Query)
	}
	return fmt.Sprintf("%s: status=%s cache=%s format=%s lastDataModifiedTime=%.6f",
		f.Entry.DataDirectory, f.Entry.Status, f.Entry.CacheDirectory, f.Entry.DataFormat, f.Entry.LastDataModifiedTime)
}

// FindTool implements registry:find.
type FindTool struct {
	Registry *freshness.Registry
}

func (c *FindTool) Name() string        { return "registry:find" }
func (c *FindTool) Description() string { return "Look up the registry entry for a data directory" }
func (c *FindTool) Namespace() string   { return "registry" }

func (c *FindTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"data_directory": {Type: "string", Description: "Data directory path"},
	}, "data_directory")
}

func (c *FindTool) Execute(_ gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	dir, err := input.RequireString("data_directory")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("registry:find: %w", err)
	}
	found := Found{Query: dir}
	if e, ok := c.Registry.Find(dir); ok {
		found.Entry = &e
	}
	return agctx.NewEnvelope(found, "application/json", "registry:find"), nil
}
