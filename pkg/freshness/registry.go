// Package freshness tracks which data directories have a cached index and
// decides whether that cache can be reused or must be rebuilt.
package freshness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the registry store used when none is configured.
const DefaultPath = "data_registry.yaml"

// Entry records the indexing state of one data directory.
type Entry struct {
	DataDirectory        string    `yaml:"dataDirectory" json:"dataDirectory"`
	CacheDirectory       string    `yaml:"cacheDirectory" json:"cacheDirectory"`
	DataFormat           string    `yaml:"dataFormat" json:"dataFormat"`
	LastDataModifiedTime float64   `yaml:"lastDataModifiedTime" json:"lastDataModifiedTime"`
	Status               string    `yaml:"status" json:"status"`
	UpdatedAt            time.Time `yaml:"updatedAt" json:"updatedAt"`
}

// Registry is a handle on a YAML-backed list of entries. All operations
// read and rewrite the whole store; one writer at a time is assumed.
type Registry struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for store warnings.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New returns a registry persisted at path.
func New(path string, opts ...Option) *Registry {
	if path == "" {
		path = DefaultPath
	}
	r := &Registry{
		path:   path,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the location of the backing store.
func (r *Registry) Path() string {
	return r.path
}

// Entries returns every entry in store order. A missing or unreadable
// store yields no entries.
func (r *Registry) Entries() []Entry {
	return r.load()
}

// Find returns the entry whose data directory resolves to the same
// absolute path as dataDir.
func (r *Registry) Find(dataDir string) (Entry, bool) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return Entry{}, false
	}
	for _, e := range r.load() {
		if sameDir(e.DataDirectory, abs) {
			return e, true
		}
	}
	return Entry{}, false
}

// Update records the current state of dataDir. The last modification time
// is recomputed from the files on disk; a cache directory nested inside
// dataDir is excluded from that walk.
func (r *Registry) Update(dataDir, status, cacheDir, format string) (Entry, error) {
	absData, err := filepath.Abs(dataDir)
	if err != nil {
		return Entry{}, fmt.Errorf("registry:update: %w", err)
	}
	absCache, err := filepath.Abs(cacheDir)
	if err != nil {
		return Entry{}, fmt.Errorf("registry:update: %w", err)
	}

	latest, err := LatestModTime(absData, absCache)
	if err != nil {
		return Entry{}, fmt.Errorf("registry:update: %w", err)
	}

	entry := Entry{
		DataDirectory:        absData,
		CacheDirectory:       absCache,
		DataFormat:           format,
		LastDataModifiedTime: latest,
		Status:               status,
		UpdatedAt:            r.now().UTC(),
	}
	if err := r.upsert(entry); err != nil {
		return Entry{}, fmt.Errorf("registry:update: %w", err)
	}
	return entry, nil
}

// List renders the registry as YAML. The boolean is false when the
// registry holds no entries.
func (r *Registry) List() (string, bool, error) {
	entries := r.load()
	if len(entries) == 0 {
		return "", false, nil
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", false, fmt.Errorf("registry:list: %w", err)
	}
	return string(data), true, nil
}

// CleanupFailure is a cache directory that could not be removed.
type CleanupFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// ClearResult describes what Clear did.
type ClearResult struct {
	// Existed reports whether a backing store was present.
	Existed bool             `json:"existed"`
	Removed []string         `json:"removed,omitempty"`
	Failed  []CleanupFailure `json:"failed,omitempty"`
}

// Clear deletes every entry's cache directory and then the store itself.
// Cache deletion is best effort: failures are collected in the result and
// never returned as an error. Only failing to remove the store is an error.
func (r *Registry) Clear() (ClearResult, error) {
	var result ClearResult

	for _, e := range r.load() {
		if e.CacheDirectory == "" {
			continue
		}
		if _, err := os.Stat(e.CacheDirectory); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(e.CacheDirectory); err != nil {
			r.logger.Warn("cache cleanup failed", zap.String("cache", e.CacheDirectory), zap.Error(err))
			result.Failed = append(result.Failed, CleanupFailure{Path: e.CacheDirectory, Err: err.Error()})
			continue
		}
		result.Removed = append(result.Removed, e.CacheDirectory)
	}

	err := os.Remove(r.path)
	switch {
	case err == nil:
		result.Existed = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return result, fmt.Errorf("registry:clear: %w", err)
	}
	return result, nil
}

func (r *Registry) upsert(entry Entry) error {
	entries := r.load()
	replaced := false
	for i, e := range entries {
		if sameDir(e.DataDirectory, entry.DataDirectory) {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return r.save(entries)
}

// load reads the store. A missing store is an empty registry; an
// unreadable or unparsable one is logged and also treated as empty.
func (r *Registry) load() []Entry {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("registry unreadable, treating as empty", zap.String("path", r.path), zap.Error(err))
		}
		return nil
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		r.logger.Warn("registry corrupt, treating as empty", zap.String("path", r.path), zap.Error(err))
		return nil
	}
	return entries
}

func (r *Registry) save(entries []Entry) error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create registry dir: %w", err)
		}
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

func sameDir(a, b string) bool {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return absA == absB
}

// LatestModTime returns the newest modification time, in epoch seconds, of
// any regular file under dir. Directory mtimes are ignored and an empty
// tree yields 0. Directories listed in skip are not descended into.
func LatestModTime(dir string, skip ...string) (float64, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}

	var latest float64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skipped[absOrSelf(path)] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if t := epochSeconds(info.ModTime()); t > latest {
			latest = t
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	return latest, nil
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
