package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cgast/edgebench/internal/config"
	"github.com/cgast/edgebench/pkg/catalog"
)

// cli runs root commands against a config rooted in a temp workspace.
type cli struct {
	t          *testing.T
	dir        string
	configPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Registry.Path = filepath.Join(dir, "data_registry.yaml")
	cfg.Registry.CacheRoot = filepath.Join(dir, "cache")
	cfg.General.APIKeyEnv = "EDGEBENCH_TEST_UNSET_KEY"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Write(cfgPath, cfg))
	return &cli{t: t, dir: dir, configPath: cfgPath}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&app{logSink: zapcore.AddSync(io.Discard)})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", c.configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestToolList(t *testing.T) {
	out, err := newCLI(t).run("tool", "list")
	require.NoError(t, err)
	for _, name := range []string{
		"fs:list", "fs:read", "fs:write", "sql:query", "rag:query", "rag:query-all",
		"registry:update", "registry:list", "registry:clear", "registry:find",
		"env:set", "http:get", "http:post",
	} {
		assert.Contains(t, out, name)
	}
}

func TestToolRunWritesAndReads(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(c.dir, "notes", "hello.txt")

	_, err := c.run("tool", "run", "fs:write", "--arg", "path="+path, "--arg", "content=a=b")
	require.NoError(t, err)

	out, err := c.run("tool", "run", "fs:read", "--arg", "path="+path)
	require.NoError(t, err)
	assert.Equal(t, "a=b\n", out)

	_, err = c.run("tool", "run", "nope:missing")
	assert.ErrorContains(t, err, "tool not found")
}

func TestParseToolArgs(t *testing.T) {
	got, err := parseToolArgs([]string{"db_path=r.db", "sql=SELECT 1 WHERE a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"db_path": "r.db", "sql": "SELECT 1 WHERE a=b"}, got)

	_, err = parseToolArgs([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseToolArgs([]string{"=x"})
	assert.Error(t, err)
}

func TestRegistryCommands(t *testing.T) {
	c := newCLI(t)
	data := filepath.Join(c.dir, "data")
	require.NoError(t, os.MkdirAll(data, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "a.txt"), []byte("hello"), 0644))

	out, err := c.run("registry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry is empty.")

	_, err = c.run("registry", "update", "--data-dir", data, "--status", "indexed",
		"--cache-dir", filepath.Join(c.dir, "cache", "a"), "--format", ".txt")
	require.NoError(t, err)

	out, err = c.run("registry", "find", data)
	require.NoError(t, err)
	assert.Contains(t, out, "status=indexed")

	out, err = c.run("registry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, data)

	out, err = c.run("registry", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry and cache cleared.")

	_, err = c.run("registry", "update", "--data-dir", data)
	assert.Error(t, err)
}

func TestRAGQuery(t *testing.T) {
	c := newCLI(t)
	data := filepath.Join(c.dir, "docs")
	require.NoError(t, os.MkdirAll(data, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "board.md"),
		[]byte("The ESP32-S3 has 45 GPIO pins."), 0644))

	out, err := c.run("rag", "query", "--data-dir", data, "--question", "How many GPIO pins?", "--top-k", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "45 GPIO pins")

	out, err = c.run("registry", "find", data)
	require.NoError(t, err)
	assert.Contains(t, out, "status=")
}

func TestTasksCommand(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "p2_finance_fx")
	assert.Contains(t, out, "round_fields")
	assert.Contains(t, out, fmt.Sprintf("%d task(s)", len(catalog.Tasks())))

	bad := filepath.Join(c.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tasks:\n  - name: x\n"), 0644))
	_, err = c.run("tasks", "--file", bad)
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(c.dir, "fresh", "config.yaml")

	var out bytes.Buffer
	root := newRootCmd(&app{logSink: zapcore.AddSync(io.Discard)})
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "init"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Created "+path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().General.Backend, cfg.General.Backend)

	root = newRootCmd(&app{logSink: zapcore.AddSync(io.Discard)})
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--config", path, "init"})
	assert.ErrorContains(t, root.Execute(), "already exists")
}

func TestHarnessCommand(t *testing.T) {
	c := newCLI(t)
	packs := filepath.Join(c.dir, "packs")
	pack := filepath.Join(packs, "custom_pack")
	require.NoError(t, os.MkdirAll(pack, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pack, "custom.json"), []byte(`{"custom": {"x": 1}}`), 0644))

	tasksFile := filepath.Join(c.dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(tasksFile, []byte(`tasks:
  - name: custom_x
    pack_glob: custom*
    answer_path: custom.json
    answer_key_path: [custom]
    prompt: Return JSON with the unroutable value x.
`), 0644))

	report := filepath.Join(c.dir, "out", "report.json")
	runs := filepath.Join(c.dir, "runs")
	out, err := c.run("harness", "--packs", packs, "--out", report, "--runsDir", runs,
		"--tasks", tasksFile, "--only", "custom_x")
	require.NoError(t, err)
	assert.Contains(t, out, "[task] custom_x")
	assert.Contains(t, out, "Both failed")
	assert.Contains(t, out, "AVERAGE")
	assert.Contains(t, out, "[done] Wrote report to "+report)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	results := doc["results"].([]any)
	require.Len(t, results, 1)
	gen := results[0].(map[string]any)["generalProvider"].(map[string]any)
	assert.Contains(t, gen["details"].(map[string]any)["error"], "EDGEBENCH_TEST_UNSET_KEY")

	_, err = os.Stat(filepath.Join(runs, "custom_x", "local_agent.json"))
	assert.NoError(t, err)

	_, err = c.run("harness", "--packs", packs)
	assert.ErrorContains(t, err, "--out")
}
