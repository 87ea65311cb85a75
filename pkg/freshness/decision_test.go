package freshness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCache simulates an index build by writing into the cache directory.
func buildCache(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.db"), []byte("idx"), 0644))
}

func TestCheckNoEntry(t *testing.T) {
	r := newRegistry(t)
	data := t.TempDir()
	cache := filepath.Join(t.TempDir(), "cache")

	d, err := r.Check(data, cache)
	require.NoError(t, err)
	assert.True(t, d.Rebuild)
	assert.Equal(t, ReasonNoIndex, d.Reason)
	assert.Equal(t, cache, d.CacheDirectory)
	assert.Nil(t, d.Previous)
}

func TestCheckRebuildTriggerAndReuse(t *testing.T) {
	r := newRegistry(t)
	data := t.TempDir()
	cache := filepath.Join(t.TempDir(), "cache")

	base := time.Unix(1_700_000_000, 0)
	doc := filepath.Join(data, "doc.txt")
	writeFile(t, doc, "v1", base)

	d, err := r.Check(data, cache)
	require.NoError(t, err)
	require.True(t, d.Rebuild)
	buildCache(t, d.CacheDirectory)
	entry, err := r.Commit(d, "indexed", "txt")
	require.NoError(t, err)
	assert.Equal(t, 1_700_000_000.0, entry.LastDataModifiedTime)

	// Untouched data: reuse.
	d, err = r.Check(data, "ignored-default")
	require.NoError(t, err)
	assert.False(t, d.Rebuild)
	assert.Empty(t, d.Reason)
	assert.Equal(t, cache, d.CacheDirectory, "registry cache location wins over the default")
	require.NotNil(t, d.Previous)

	// Touch a file one second later: rebuild.
	later := base.Add(time.Second)
	require.NoError(t, os.Chtimes(doc, later, later))

	d, err = r.Check(data, cache)
	require.NoError(t, err)
	assert.True(t, d.Rebuild)
	assert.Equal(t, ReasonDataChanged, d.Reason)

	_, err = r.Commit(d, "indexed", "txt")
	require.NoError(t, err)
	d, err = r.Check(data, cache)
	require.NoError(t, err)
	assert.False(t, d.Rebuild)
	assert.Len(t, r.Entries(), 1)
}

func TestCheckEmptyCacheForcesRebuild(t *testing.T) {
	r := newRegistry(t)
	data := t.TempDir()
	cache := filepath.Join(t.TempDir(), "cache")
	writeFile(t, filepath.Join(data, "doc.txt"), "v1", time.Unix(1_700_000_000, 0))

	d, err := r.Check(data, cache)
	require.NoError(t, err)
	buildCache(t, cache)
	_, err = r.Commit(d, "indexed", "txt")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(cache))
	require.NoError(t, os.MkdirAll(cache, 0755))

	d, err = r.Check(data, cache)
	require.NoError(t, err)
	assert.True(t, d.Rebuild)
	assert.Equal(t, ReasonNoIndex, d.Reason)
}

func TestCheckIgnoresDeletions(t *testing.T) {
	r := newRegistry(t)
	data := t.TempDir()
	cache := filepath.Join(t.TempDir(), "cache")
	writeFile(t, filepath.Join(data, "keep.txt"), "k", time.Unix(1_700_000_100, 0))
	writeFile(t, filepath.Join(data, "drop.txt"), "d", time.Unix(1_700_000_000, 0))

	d, err := r.Check(data, cache)
	require.NoError(t, err)
	buildCache(t, cache)
	_, err = r.Commit(d, "indexed", "txt")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(data, "drop.txt")))

	d, err = r.Check(data, cache)
	require.NoError(t, err)
	assert.False(t, d.Rebuild)
}

func TestCheckNestedCacheDoesNotTriggerRebuild(t *testing.T) {
	r := newRegistry(t)
	data := t.TempDir()
	cache := filepath.Join(data, ".cache", "storage")
	writeFile(t, filepath.Join(data, "doc.txt"), "v1", time.Unix(1_700_000_000, 0))

	d, err := r.Check(data, cache)
	require.NoError(t, err)
	buildCache(t, cache)
	_, err = r.Commit(d, "indexed", "txt")
	require.NoError(t, err)

	d, err = r.Check(data, cache)
	require.NoError(t, err)
	assert.False(t, d.Rebuild)
}

func TestCheckMissingDataDir(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Check(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}
