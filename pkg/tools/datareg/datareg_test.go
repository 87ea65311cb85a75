package datareg

import (
	gocontext "context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/freshness"
	"github.com/cgast/edgebench/pkg/tools"
)

func run(t *testing.T, tool tools.Tool, args map[string]any) (agctx.Envelope, error) {
	t.Helper()
	return tool.Execute(gocontext.Background(), agctx.NewArgs(args, "test"))
}

func TestRegistryTools(t *testing.T) {
	reg := freshness.New(filepath.Join(t.TempDir(), "data_registry.yaml"))
	r := tools.NewRegistry()
	require.NoError(t, r.Register(All(reg)...))
	assert.Equal(t, []string{"registry:clear", "registry:find", "registry:list", "registry:update"}, r.Names())

	list, _ := r.Resolve("registry:list")
	env, err := run(t, list, nil)
	require.NoError(t, err)
	assert.Equal(t, "Registry is empty.", tools.Render(env))

	data := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(data, "a.csv"), []byte("x,y\n1,2\n"), 0644))
	cache := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(cache, 0755))

	update, _ := r.Resolve("registry:update")
	env, err = run(t, update, map[string]any{
		"data_directory":  data,
		"status":          "rag_indexed",
		"cache_directory": cache,
		"data_format":     "csv",
	})
	require.NoError(t, err)
	entry := env.Payload.(freshness.Entry)
	assert.Equal(t, "csv", entry.DataFormat)
	assert.Greater(t, entry.LastDataModifiedTime, 0.0)

	env, err = run(t, list, nil)
	require.NoError(t, err)
	assert.Contains(t, tools.Render(env), "dataDirectory: "+entry.DataDirectory)

	find, _ := r.Resolve("registry:find")
	env, err = run(t, find, map[string]any{"data_directory": data})
	require.NoError(t, err)
	assert.Contains(t, tools.Render(env), "status=rag_indexed")
	env, err = run(t, find, map[string]any{"data_directory": t.TempDir()})
	require.NoError(t, err)
	assert.Contains(t, tools.Render(env), "No registry entry")

	clr, _ := r.Resolve("registry:clear")
	env, err = run(t, clr, nil)
	require.NoError(t, err)
	assert.Equal(t, "Registry and cache cleared.", tools.Render(env))
	assert.NoDirExists(t, cache)

	env, err = run(t, clr, nil)
	require.NoError(t, err)
	assert.Equal(t, "No registry file found.", tools.Render(env))
}

func TestUpdateRequiresAllArguments(t *testing.T) {
	reg := freshness.New(filepath.Join(t.TempDir(), "data_registry.yaml"))
	_, err := run(t, &UpdateTool{Registry: reg}, map[string]any{
		"data_directory": t.TempDir(),
		"status":         "rag_indexed",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_directory, data_format")
	assert.Empty(t, reg.Entries())
}
