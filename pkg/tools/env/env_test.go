package env

import (
	gocontext "context"
	"os"
	"testing"

	agctx "github.com/cgast/edgebench/pkg/context"
)

func TestSetTool(t *testing.T) {
	t.Setenv("EDGEBENCH_TEST_KEY", "")

	env, err := (&SetTool{}).Execute(gocontext.Background(), agctx.NewArgs(map[string]any{
		"name":  "EDGEBENCH_TEST_KEY",
		"value": "sk-123",
	}, "test"))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got := os.Getenv("EDGEBENCH_TEST_KEY"); got != "sk-123" {
		t.Errorf("expected variable to be set, got %q", got)
	}
	if env.PayloadString() != "Successfully installed API key" {
		t.Errorf("unexpected payload %q", env.PayloadString())
	}
}

func TestSetToolRejects(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing value", map[string]any{"name": "X"}},
		{"missing name", map[string]any{"value": "v"}},
		{"bad name", map[string]any{"name": "A=B", "value": "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (&SetTool{}).Execute(gocontext.Background(), agctx.NewArgs(tt.args, "test")); err == nil {
				t.Error("expected error")
			}
		})
	}
}
