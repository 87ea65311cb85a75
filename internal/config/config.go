package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration.
const DefaultPath = ".edgebench/config.yaml"

// Config represents the runtime configuration from .edgebench/config.yaml.
type Config struct {
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"` // "console" or "json"
	Registry  RegistryConfig `yaml:"registry"`
	Harness   HarnessConfig  `yaml:"harness"`
	General   GeneralConfig  `yaml:"general"`
	Sandbox   SandboxConfig  `yaml:"sandbox"`
	RAG       RAGConfig      `yaml:"rag"`
}

// RegistryConfig locates the freshness registry and the index caches.
type RegistryConfig struct {
	Path      string `yaml:"path"`
	CacheRoot string `yaml:"cache_root"`
}

// HarnessConfig holds defaults for the harness command.
type HarnessConfig struct {
	Packs     string `yaml:"packs"`
	RunsDir   string `yaml:"runs_dir"`
	TasksFile string `yaml:"tasks_file"`
}

// GeneralConfig configures the general LLM provider.
type GeneralConfig struct {
	Backend        string   `yaml:"backend"` // "gemini" or "openai"
	Model          string   `yaml:"model"`
	APIKey         string   `yaml:"api_key"`
	APIKeyEnv      string   `yaml:"api_key_env"`
	BaseURL        string   `yaml:"base_url"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	RESTFallback   bool     `yaml:"rest_fallback"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

// Timeout returns the provider timeout as a duration.
func (g GeneralConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// SandboxConfig defines filesystem restrictions for file-reading tools.
type SandboxConfig struct {
	AllowedPaths []string `yaml:"allowed_paths"`
	DeniedPaths  []string `yaml:"denied_paths"`
	MaxFileSize  string   `yaml:"max_file_size"`
}

// RAGConfig holds retrieval defaults.
type RAGConfig struct {
	TopK int `yaml:"top_k"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		Registry: RegistryConfig{
			Path:      "data_registry.yaml",
			CacheRoot: ".edgebench/cache",
		},
		Harness: HarnessConfig{
			RunsDir: "runs",
		},
		General: GeneralConfig{
			Backend:        "gemini",
			Model:          "gemini-1.5-pro",
			APIKeyEnv:      "GEMINI_API_KEY",
			TimeoutSeconds: 60,
			RESTFallback:   true,
			AllowedDomains: []string{"generativelanguage.googleapis.com", "api.openai.com"},
		},
		Sandbox: SandboxConfig{
			DeniedPaths: []string{"/etc", "/proc", "/sys"},
			MaxFileSize: "50MB",
		},
		RAG: RAGConfig{
			TopK: 2,
		},
	}
}

// LoadConfig reads and parses a runtime config YAML file, interpolating
// ${VAR} references from the environment. Returns the default config if
// the file doesn't exist. Fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	interpolated := interpolateEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the CLI cannot act on.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}
	switch c.General.Backend {
	case "gemini", "openai":
	default:
		return fmt.Errorf("general.backend: unsupported value %q", c.General.Backend)
	}
	if c.General.TimeoutSeconds < 0 {
		return fmt.Errorf("general.timeout_seconds: must not be negative")
	}
	if c.RAG.TopK < 0 {
		return fmt.Errorf("rag.top_k: must not be negative")
	}
	return nil
}

// Write serializes cfg to path, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // Leave unresolved if not set.
	})
}
