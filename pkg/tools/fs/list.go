// Package fs provides the file system tools: directory analysis, file
// reading and file writing.
package fs

import (
	gocontext "context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cgast/edgebench/internal/sandbox"
	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/tools"
)

// ListTool implements fs:list, a recursive directory analyzer.
type ListTool struct {
	Sandbox *sandbox.Sandbox
}

func (c *ListTool) Name() string      { return "fs:list" }
func (c *ListTool) Namespace() string { return "fs" }
func (c *ListTool) Description() string {
	return "Analyze a directory: every file and folder with sizes, plus counts per file type"
}

func (c *ListTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"path":      {Type: "string", Description: "Directory to analyze"},
		"max_depth": {Type: "integer", Description: "Maximum depth to descend; 0 means unlimited"},
	}, "path")
}

// FileEntry is one file or directory found during analysis.
type FileEntry struct {
	Path  string `json:"path"` // relative to the analyzed root
	Size  int64  `json:"size"`
	IsDir bool   `json:"is_dir"`
}

// Analysis is the fs:list payload.
type Analysis struct {
	Root      string         `json:"root"`
	Entries   []FileEntry    `json:"entries"`
	FileCount int            `json:"file_count"`
	DirCount  int            `json:"dir_count"`
	TotalSize int64          `json:"total_size"`
	ByType    map[string]int `json:"by_type"`
}

func (c *ListTool) Execute(_ gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	dir := input.StringArg("path")
	if dir == "" {
		dir = "."
	}
	maxDepth, err := input.IntArg("max_depth", 0)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:list: %w", err)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:list: resolve path: %w", err)
	}
	if c.Sandbox != nil {
		if err := c.Sandbox.CheckPath(dir); err != nil {
			return agctx.Envelope{}, fmt.Errorf("fs:list: %w", err)
		}
	}

	analysis, err := Analyze(dir, maxDepth)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("fs:list: %w", err)
	}

	env := agctx.NewEnvelope(analysis, "application/json", "fs:list")
	env.Meta.Tags["dir"] = dir
	env.Meta.Tags["count"] = fmt.Sprintf("%d", len(analysis.Entries))
	return env, nil
}

// Analyze walks dir and summarizes what it contains. Entries are sorted
// by relative path. maxDepth limits recursion when positive.
func Analyze(dir string, maxDepth int) (Analysis, error) {
	a := Analysis{Root: dir, ByType: make(map[string]int)}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if maxDepth > 0 && depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		entry := FileEntry{Path: rel, IsDir: d.IsDir()}
		if d.IsDir() {
			a.DirCount++
		} else {
			entry.Size = info.Size()
			a.FileCount++
			a.TotalSize += info.Size()
			a.ByType[fileType(path)]++
		}
		a.Entries = append(a.Entries, entry)
		return nil
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(a.Entries, func(i, j int) bool { return a.Entries[i].Path < a.Entries[j].Path })
	return a, nil
}

func fileType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "(none)"
	}
	return ext
}
