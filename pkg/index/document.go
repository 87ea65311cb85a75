// Package index builds, persists and queries a term index over the text
// files of a data directory.
package index

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// maxDocumentBytes caps how much of a single file is indexed.
	maxDocumentBytes = 4 << 20
	// chunkWords is the passage length in words.
	chunkWords = 200
	// chunkOverlap is the number of words shared by consecutive passages.
	chunkOverlap = 20
)

// Document is one text file read from a data directory.
type Document struct {
	Path     string
	Text     string
	Metadata map[string]string
}

// Passage is the unit that is indexed and returned by queries.
type Passage struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// LoadDocuments reads every text file under dir. Hidden files and
// directories, binary files and directories listed in skip are ignored.
// Documents are returned sorted by path.
func LoadDocuments(dir string, skip ...string) ([]Document, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}

	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if abs, err := filepath.Abs(path); err == nil && skipped[abs] && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		doc, ok, err := readDocument(path)
		if err != nil {
			return err
		}
		if ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load documents from %s: %w", dir, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func readDocument(path string) (Document, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, false, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
	if err != nil {
		return Document{}, false, err
	}

	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return Document{}, false, nil
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Document{}, false, nil
	}

	return Document{
		Path: path,
		Text: text,
		Metadata: map[string]string{
			"file_path":          path,
			"file_name":          filepath.Base(path),
			"file_type":          strings.TrimPrefix(filepath.Ext(path), "."),
			"file_size":          strconv.FormatInt(info.Size(), 10),
			"last_modified_date": info.ModTime().Format("2006-01-02"),
		},
	}, true, nil
}

// Chunk splits documents into overlapping word windows.
func Chunk(docs []Document) []Passage {
	var passages []Passage
	for _, doc := range docs {
		words := strings.Fields(doc.Text)
		for i, start := 0, 0; start < len(words); i++ {
			end := min(start+chunkWords, len(words))
			meta := make(map[string]string, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta["chunk"] = strconv.Itoa(i)
			passages = append(passages, Passage{
				ID:       doc.Path + "#" + strconv.Itoa(i),
				Text:     strings.Join(words[start:end], " "),
				Metadata: meta,
			})
			if end == len(words) {
				break
			}
			start = end - chunkOverlap
		}
	}
	return passages
}

// Formats returns the distinct file extensions of docs, sorted and joined
// with commas.
func Formats(docs []Document) string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range docs {
		ext := d.Metadata["file_type"]
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
