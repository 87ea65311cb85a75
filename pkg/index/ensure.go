package index

import (
	gocontext "context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cgast/edgebench/pkg/events"
	"github.com/cgast/edgebench/pkg/freshness"
)

// StatusIndexed is the registry status written after a successful build.
const StatusIndexed = "rag_indexed"

// reasonCacheUnreadable is used when a reusable cache fails to load.
const reasonCacheUnreadable = "cached index unreadable"

// CacheDir returns the default cache location for dataDir under root.
// Each data directory gets its own subdirectory named by a hash of its
// absolute path, so the cache never lives inside the data it indexes.
func CacheDir(root, dataDir string) (string, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(root, hex.EncodeToString(sum[:8])), nil
}

// EnsureOptions configures Ensure.
type EnsureOptions struct {
	// DefaultCacheDir is used when the registry has no entry for the
	// directory. Required.
	DefaultCacheDir string
	// Status is recorded in the registry after a build. Defaults to
	// StatusIndexed.
	Status string
	// Format is recorded in the registry after a build. Defaults to the
	// file extensions found in the directory.
	Format    string
	Publisher events.Publisher
	Logger    *zap.Logger
}

// Ensure returns an index for dataDir, reusing the cached one when the
// registry says it is fresh and rebuilding it otherwise. After a rebuild
// the registry entry is committed.
func Ensure(ctx gocontext.Context, reg *freshness.Registry, backend Backend, dataDir string, opts EnsureOptions) (*Index, freshness.Decision, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d, err := reg.Check(dataDir, opts.DefaultCacheDir)
	if err != nil {
		return nil, d, err
	}

	if !d.Rebuild {
		ix, err := backend.Load(d.CacheDirectory)
		if err == nil {
			logger.Info("loading existing index",
				zap.String("data_dir", d.DataDirectory),
				zap.String("cache", d.CacheDirectory),
				zap.Int("passages", ix.Len()))
			events.Emit(opts.Publisher, events.NewEvent(events.EventIndexReuse, d.DataDirectory, map[string]any{
				"cache":    d.CacheDirectory,
				"passages": ix.Len(),
			}))
			return ix, d, nil
		}
		logger.Warn("cached index unreadable, rebuilding",
			zap.String("cache", d.CacheDirectory), zap.Error(err))
		d.Rebuild = true
		d.Reason = reasonCacheUnreadable
	}

	logger.Info("rebuilding index",
		zap.String("data_dir", d.DataDirectory),
		zap.String("reason", d.Reason))

	docs, err := LoadDocuments(d.DataDirectory, d.CacheDirectory)
	if err != nil {
		return nil, d, err
	}
	ix, err := backend.Build(ctx, Chunk(docs), d.CacheDirectory)
	if err != nil {
		return nil, d, err
	}

	status := opts.Status
	if status == "" {
		status = StatusIndexed
	}
	format := opts.Format
	if format == "" {
		format = Formats(docs)
	}
	if _, err := reg.Commit(d, status, format); err != nil {
		return nil, d, fmt.Errorf("record index build: %w", err)
	}

	events.Emit(opts.Publisher, events.NewEvent(events.EventIndexRebuild, d.DataDirectory, map[string]any{
		"reason":    d.Reason,
		"cache":     d.CacheDirectory,
		"documents": len(docs),
		"passages":  ix.Len(),
	}))
	return ix, d, nil
}
