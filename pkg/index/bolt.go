package index

import (
	gocontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Backend persists and restores indexes in a cache directory.
type Backend interface {
	Build(ctx gocontext.Context, passages []Passage, dir string) (*Index, error)
	Load(dir string) (*Index, error)
}

// DBFile is the file name of the bolt database inside a cache directory.
const DBFile = "index.db"

var (
	bucketPassages = []byte("passages")
	bucketMeta     = []byte("meta")
	keyBuiltAt     = []byte("built_at")
)

// BoltBackend stores passages and their term frequencies in a bbolt file.
type BoltBackend struct{}

// Build writes a fresh database to dir, replacing any previous one.
func (BoltBackend) Build(ctx gocontext.Context, passages []Passage, dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("index build: %w", err)
	}
	path := filepath.Join(dir, DBFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("index build: remove stale db: %w", err)
	}

	ix := NewIndex(passages)

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("index build: open bolt db: %w", err)
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		pb, err := tx.CreateBucketIfNotExists(bucketPassages)
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketPassages, err)
		}
		for _, e := range ix.entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal passage %s: %w", e.ID, err)
			}
			if err := pb.Put([]byte(e.ID), data); err != nil {
				return err
			}
		}

		mb, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketMeta, err)
		}
		return mb.Put(keyBuiltAt, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return nil, fmt.Errorf("index build: %w", err)
	}
	return ix, nil
}

// Load reads the database in dir.
func (BoltBackend) Load(dir string) (*Index, error) {
	path := filepath.Join(dir, DBFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index load: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("index load: open bolt db: %w", err)
	}
	defer db.Close()

	var entries []entry
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPassages)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucketPassages)
		}
		return b.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal passage %s: %w", string(k), err)
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("index load: %w", err)
	}
	return fromEntries(entries), nil
}
