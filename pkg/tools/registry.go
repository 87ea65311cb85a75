package tools

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
)

// ErrToolNotFound is returned when a name does not resolve to a tool.
var ErrToolNotFound = errors.New("tool not found")

// Registry holds all registered tools, keyed by full name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds tools to the registry. Returns an error if a tool with the
// same name is already registered; tools before it stay registered.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tools {
		name := t.Name()
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("tool already registered: %s", name)
		}
		r.tools[name] = t
	}
	return nil
}

// Resolve looks up a tool by its full name (e.g. "fs:list").
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// List returns the tools in a namespace sorted by name. An empty namespace
// returns every tool.
func (r *Registry) List(namespace string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Tool
	for _, t := range r.tools {
		if namespace == "" || t.Namespace() == namespace {
			result = append(result, t)
		}
	}
	sortTools(result)
	return result
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespaces returns all unique namespaces, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, t := range r.tools {
		if ns := t.Namespace(); ns != "" {
			seen[ns] = true
		}
	}

	result := make([]string, 0, len(seen))
	for ns := range seen {
		result = append(result, ns)
	}
	sort.Strings(result)
	return result
}

// MatchGlob returns the tools whose names match a shell pattern such as
// "fs:*" or "registry:[lc]*", sorted by name. A malformed pattern matches
// nothing.
func (r *Registry) MatchGlob(pattern string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Tool
	for name, t := range r.tools {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			result = append(result, t)
		}
	}
	sortTools(result)
	return result
}

func sortTools(ts []Tool) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name() < ts[j].Name() })
}
