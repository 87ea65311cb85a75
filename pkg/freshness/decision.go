package freshness

import (
	"fmt"
	"os"
	"path/filepath"
)

// Rebuild reasons.
const (
	ReasonNoIndex     = "no existing index"
	ReasonDataChanged = "data directory changed"
)

// Decision is the outcome of a freshness check for one data directory.
type Decision struct {
	Rebuild bool
	// Reason is empty when the cache is reused.
	Reason         string
	DataDirectory  string
	CacheDirectory string
	// LatestModTime is the data directory's newest file mtime at check time.
	LatestModTime float64
	// Previous is the registry entry the check was made against, if any.
	Previous *Entry
}

// Check decides whether the cached index for dataDir can be reused. The
// cache location comes from the registry entry when one exists, otherwise
// defaultCacheDir is used.
//
// Deleting files from dataDir never triggers a rebuild: only a newer
// modification time does.
func (r *Registry) Check(dataDir, defaultCacheDir string) (Decision, error) {
	absData, err := filepath.Abs(dataDir)
	if err != nil {
		return Decision{}, fmt.Errorf("freshness check: %w", err)
	}

	d := Decision{DataDirectory: absData}

	entry, found := r.Find(absData)
	if found && entry.CacheDirectory != "" {
		d.CacheDirectory = entry.CacheDirectory
		d.Previous = &entry
	} else {
		d.CacheDirectory, err = filepath.Abs(defaultCacheDir)
		if err != nil {
			return Decision{}, fmt.Errorf("freshness check: %w", err)
		}
		if found {
			d.Previous = &entry
		}
	}

	d.LatestModTime, err = LatestModTime(absData, d.CacheDirectory)
	if err != nil {
		return Decision{}, fmt.Errorf("freshness check: %w", err)
	}

	switch {
	case !found || cacheEmpty(d.CacheDirectory):
		d.Rebuild = true
		d.Reason = ReasonNoIndex
	case d.LatestModTime > entry.LastDataModifiedTime:
		d.Rebuild = true
		d.Reason = ReasonDataChanged
	}
	return d, nil
}

// Commit records a completed build. It upserts the entry for the decision's
// data directory with the mtime observed at check time and the cache
// location actually used.
func (r *Registry) Commit(d Decision, status, format string) (Entry, error) {
	entry := Entry{
		DataDirectory:        d.DataDirectory,
		CacheDirectory:       d.CacheDirectory,
		DataFormat:           format,
		LastDataModifiedTime: d.LatestModTime,
		Status:               status,
		UpdatedAt:            r.now().UTC(),
	}
	if err := r.upsert(entry); err != nil {
		return Entry{}, fmt.Errorf("freshness commit: %w", err)
	}
	return entry, nil
}

func cacheEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err != nil || len(entries) == 0
}
