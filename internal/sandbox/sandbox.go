package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrOutsideRoot is returned for a path that is not inside any root.
	ErrOutsideRoot = errors.New("sandbox: path outside root")

	// ErrDenied is returned for a path inside a denied directory.
	ErrDenied = errors.New("sandbox: path denied")

	// ErrTooLarge is returned when a file exceeds the size limit.
	ErrTooLarge = errors.New("sandbox: file too large")
)

// Sandbox limits which files the tools and the local agent may touch. A
// sandbox with no roots admits every path that is not denied; Confine
// narrows it to a single pack directory. Paths are compared after
// symlinks are resolved, so a link inside a pack cannot point out of it.
type Sandbox struct {
	roots  []string
	denied []string
	limit  int64 // bytes, 0 means unlimited
}

// Config holds the sandbox configuration.
type Config struct {
	AllowedPaths []string
	DeniedPaths  []string
	MaxFileSize  string // e.g. "10MB", "1GB", "500KB"
}

// New creates a Sandbox from the given configuration.
func New(cfg Config) (*Sandbox, error) {
	s := &Sandbox{}
	for _, p := range cfg.AllowedPaths {
		abs, err := resolve(p)
		if err != nil {
			return nil, fmt.Errorf("sandbox: allowed path %q: %w", p, err)
		}
		s.roots = append(s.roots, abs)
	}
	for _, p := range cfg.DeniedPaths {
		abs, err := resolve(p)
		if err != nil {
			return nil, fmt.Errorf("sandbox: denied path %q: %w", p, err)
		}
		s.denied = append(s.denied, abs)
	}
	if cfg.MaxFileSize != "" {
		n, err := parseFileSize(cfg.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("sandbox: max_file_size %q: %w", cfg.MaxFileSize, err)
		}
		s.limit = n
	}
	return s, nil
}

// Confine returns a sandbox rooted at dir. dir itself must pass CheckPath;
// denied paths and the size limit carry over.
func (s *Sandbox) Confine(dir string) (*Sandbox, error) {
	root, err := s.check(dir)
	if err != nil {
		return nil, err
	}
	return &Sandbox{
		roots:  []string{root},
		denied: append([]string(nil), s.denied...),
		limit:  s.limit,
	}, nil
}

// Root returns the single root of a confined sandbox, or "" when the
// sandbox has zero or several roots.
func (s *Sandbox) Root() string {
	if len(s.roots) != 1 {
		return ""
	}
	return s.roots[0]
}

// CheckPath reports whether path may be accessed. Denied directories win
// over roots.
func (s *Sandbox) CheckPath(path string) error {
	_, err := s.check(path)
	return err
}

func (s *Sandbox) check(path string) (string, error) {
	abs, err := resolve(path)
	if err != nil {
		return "", fmt.Errorf("sandbox: resolve %q: %w", path, err)
	}
	for _, d := range s.denied {
		if within(abs, d) {
			return "", fmt.Errorf("%w: %s is under %s", ErrDenied, abs, d)
		}
	}
	if len(s.roots) == 0 {
		return abs, nil
	}
	for _, r := range s.roots {
		if within(abs, r) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w: %s escapes %s", ErrOutsideRoot, abs, strings.Join(s.roots, ", "))
}

// CheckFileSize reports whether a file of size bytes is within the limit.
func (s *Sandbox) CheckFileSize(size int64) error {
	if s.limit > 0 && size > s.limit {
		return fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, formatFileSize(size), formatFileSize(s.limit))
	}
	return nil
}

// MaxFileSize returns the size limit in bytes, 0 when unlimited.
func (s *Sandbox) MaxFileSize() int64 { return s.limit }

// ReadFile checks path and the file's size, then reads it.
func (s *Sandbox) ReadFile(path string) ([]byte, error) {
	abs, err := s.check(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("sandbox: %s is a directory", abs)
	}
	if err := s.CheckFileSize(info.Size()); err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// resolve makes path absolute and resolves symlinks in its longest
// existing prefix. The missing tail is appended unchanged so paths that
// are about to be created can still be checked.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	existing, tail := abs, ""
	for {
		target, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(target, tail), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		tail = filepath.Join(filepath.Base(existing), tail)
		existing = parent
	}
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

var sizeUnits = []struct {
	name  string
	bytes int64
}{
	{"TB", 1 << 40},
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseFileSize parses sizes like "512", "10KB" or "0.5MB" (case-insensitive).
func parseFileSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	num, mult := s, int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.name) {
			num, mult = strings.TrimSpace(strings.TrimSuffix(s, u.name)), u.bytes
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid file size %q", s)
	}
	return int64(f * float64(mult)), nil
}

func formatFileSize(n int64) string {
	for _, u := range sizeUnits[:len(sizeUnits)-1] {
		if n >= u.bytes {
			return fmt.Sprintf("%.1f%s", float64(n)/float64(u.bytes), u.name)
		}
	}
	return fmt.Sprintf("%dB", n)
}
