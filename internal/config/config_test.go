package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.General.Backend != "gemini" {
		t.Errorf("General.Backend = %q, want %q", cfg.General.Backend, "gemini")
	}
	if cfg.Harness.RunsDir != "runs" {
		t.Errorf("Harness.RunsDir = %q, want %q", cfg.Harness.RunsDir, "runs")
	}
	if cfg.Registry.Path != "data_registry.yaml" {
		t.Errorf("Registry.Path = %q, want %q", cfg.Registry.Path, "data_registry.yaml")
	}
	if cfg.General.Timeout() != 60*time.Second {
		t.Errorf("General.Timeout() = %v, want 60s", cfg.General.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
log_level: debug
log_format: json
harness:
  runs_dir: out/runs
general:
  backend: openai
  model: gpt-4o-mini
  timeout_seconds: 15
rag:
  top_k: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
	if cfg.Harness.RunsDir != "out/runs" {
		t.Errorf("Harness.RunsDir = %q, want %q", cfg.Harness.RunsDir, "out/runs")
	}
	if cfg.General.Backend != "openai" || cfg.General.Model != "gpt-4o-mini" {
		t.Errorf("General = %+v, want openai/gpt-4o-mini", cfg.General)
	}
	if cfg.General.Timeout() != 15*time.Second {
		t.Errorf("General.Timeout() = %v, want 15s", cfg.General.Timeout())
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("RAG.TopK = %d, want 5", cfg.RAG.TopK)
	}
	// Untouched sections keep their defaults.
	if cfg.Registry.CacheRoot != ".edgebench/cache" {
		t.Errorf("Registry.CacheRoot = %q, want default", cfg.Registry.CacheRoot)
	}
	if !cfg.General.RESTFallback {
		t.Error("General.RESTFallback should keep its default")
	}
}

func TestLoadConfigInterpolatesEnv(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "key-123")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
general:
  api_key: "${TEST_GEMINI_KEY}"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.APIKey != "key-123" {
		t.Errorf("General.APIKey = %q, want %q", cfg.General.APIKey, "key-123")
	}
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "general: [unclosed"},
		{"bad backend", "general:\n  backend: claude-local\n"},
		{"bad log format", "log_format: xml\n"},
		{"negative top_k", "rag:\n  top_k: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".edgebench", "config.yaml")
	cfg := DefaultConfig()
	cfg.RAG.TopK = 7

	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.RAG.TopK != 7 {
		t.Errorf("RAG.TopK = %d, want 7", got.RAG.TopK)
	}
	if len(got.General.AllowedDomains) != 2 {
		t.Errorf("General.AllowedDomains = %v, want 2 domains", got.General.AllowedDomains)
	}
}

func TestInterpolateEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("NUM_123", "456")

	tests := []struct {
		input string
		want  string
	}{
		{"${FOO}", "bar"},
		{"prefix-${FOO}-suffix", "prefix-bar-suffix"},
		{"${UNSET_VAR}", "${UNSET_VAR}"}, // unresolved stays
		{"${FOO} and ${NUM_123}", "bar and 456"},
		{"no vars here", "no vars here"},
	}

	for _, tt := range tests {
		got := interpolateEnvVars(tt.input)
		if got != tt.want {
			t.Errorf("interpolateEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
