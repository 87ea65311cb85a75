package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cgast/edgebench/pkg/catalog"
)

var (
	// ErrPackNotFound means a task's pack glob matched nothing.
	ErrPackNotFound = errors.New("no pack matched")
	// ErrExpectedUnavailable means the expected answer could not be read.
	ErrExpectedUnavailable = errors.New("expected answer unavailable")
)

// LocatePack resolves a pack glob under packsDir. When several paths
// match, the longest one wins; equal lengths are broken lexically.
func LocatePack(packsDir, glob string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(packsDir, glob))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPackNotFound, glob, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s under %s", ErrPackNotFound, glob, packsDir)
	}
	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) > len(matches[j])
		}
		return matches[i] < matches[j]
	})
	return matches[0], nil
}

// LoadExpected reads the task's answer file from packDir and descends its
// answer key path.
func LoadExpected(packDir string, task catalog.Task) (any, error) {
	path := filepath.Join(packDir, filepath.FromSlash(task.AnswerPath))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExpectedUnavailable, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExpectedUnavailable, path, err)
	}
	expected, err := catalog.Descend(doc, task.AnswerKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExpectedUnavailable, path, err)
	}
	return expected, nil
}
