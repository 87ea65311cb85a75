package tools

import (
	gocontext "context"
	"errors"
	"testing"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/events"
)

// mockTool is a test implementation of Tool.
type mockTool struct {
	name      string
	namespace string
	err       error
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return "mock " + m.name }
func (m *mockTool) Namespace() string   { return m.namespace }
func (m *mockTool) InputSchema() Schema {
	return Object(map[string]SchemaField{"path": {Type: "string"}}, "path")
}
func (m *mockTool) Execute(_ gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	if m.err != nil {
		return agctx.Envelope{}, m.err
	}
	return agctx.NewEnvelope(input.StringArg("path"), "text/plain", m.name), nil
}

func populated(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	err := reg.Register(
		&mockTool{name: "fs:list", namespace: "fs"},
		&mockTool{name: "fs:read", namespace: "fs"},
		&mockTool{name: "fs:write", namespace: "fs"},
		&mockTool{name: "registry:list", namespace: "registry"},
		&mockTool{name: "registry:clear", namespace: "registry"},
	)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return reg
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := populated(t)

	resolved, err := reg.Resolve("fs:list")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if resolved.Name() != "fs:list" {
		t.Errorf("expected fs:list, got %s", resolved.Name())
	}
}

func TestRegistryDuplicateRegister(t *testing.T) {
	reg := NewRegistry()
	tool := &mockTool{name: "fs:list", namespace: "fs"}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	if err := reg.Register(tool); err == nil {
		t.Error("expected error on duplicate register")
	}
}

func TestRegistryResolveNotFound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("nonexistent")
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistryListByNamespace(t *testing.T) {
	reg := populated(t)

	fsTools := reg.List("fs")
	if len(fsTools) != 3 {
		t.Fatalf("expected 3 fs tools, got %d", len(fsTools))
	}
	if fsTools[0].Name() != "fs:list" || fsTools[2].Name() != "fs:write" {
		t.Errorf("expected sorted fs tools, got %s..%s", fsTools[0].Name(), fsTools[2].Name())
	}

	if all := reg.List(""); len(all) != 5 {
		t.Errorf("expected 5 total tools, got %d", len(all))
	}
}

func TestRegistryNamesAndNamespaces(t *testing.T) {
	reg := populated(t)

	names := reg.Names()
	if len(names) != 5 || names[0] != "fs:list" {
		t.Errorf("unexpected names %v", names)
	}

	ns := reg.Namespaces()
	if len(ns) != 2 || ns[0] != "fs" || ns[1] != "registry" {
		t.Errorf("unexpected namespaces %v", ns)
	}
}

func TestRegistryMatchGlob(t *testing.T) {
	reg := populated(t)

	tests := []struct {
		pattern  string
		expected int
	}{
		{"fs:*", 3},
		{"registry:*", 2},
		{"*", 5},
		{"fs:list", 1},
		{"registry:[lc]*", 2},
		{"sql:*", 0},
		{"fs:[", 0},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			matches := reg.MatchGlob(tt.pattern)
			if len(matches) != tt.expected {
				t.Errorf("pattern %q: expected %d matches, got %d", tt.pattern, tt.expected, len(matches))
			}
		})
	}
}

func TestCall(t *testing.T) {
	bus := events.NewMemoryBus()
	ok := &mockTool{name: "fs:read", namespace: "fs"}

	out, err := Call(gocontext.Background(), ok, agctx.NewArgs(map[string]any{"path": "a.txt"}, "test"), bus)
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if out.PayloadString() != "a.txt" {
		t.Errorf("expected payload a.txt, got %q", out.PayloadString())
	}
	if len(out.Provenance) != 1 || out.Provenance[0].Tool != "fs:read" {
		t.Errorf("expected one provenance step for fs:read, got %+v", out.Provenance)
	}

	failing := &mockTool{name: "fs:write", namespace: "fs", err: errors.New("disk full")}
	if _, err := Call(gocontext.Background(), failing, agctx.NewArgs(nil, "test"), bus); err == nil {
		t.Error("expected error from failing tool")
	}

	calls := bus.History(events.EventToolCall)
	if len(calls) != 2 {
		t.Fatalf("expected 2 tool.call events, got %d", len(calls))
	}
	if calls[1].Data.(map[string]any)["status"] != "error" {
		t.Errorf("expected error status on second call, got %v", calls[1].Data)
	}
}
