package local

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cgast/edgebench/internal/sandbox"
)

// Pack gives handlers sandboxed access to one pack directory. Paths are
// relative to Dir and use forward slashes.
type Pack struct {
	Dir     string
	sandbox *sandbox.Sandbox
}

// Path joins rel onto the pack directory.
func (p *Pack) Path(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}

// Exists reports whether rel exists inside the pack.
func (p *Pack) Exists(rel string) bool {
	path := p.Path(rel)
	if p.sandbox.CheckPath(path) != nil {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// ReadFile reads rel through the sandbox.
func (p *Pack) ReadFile(rel string) ([]byte, error) {
	return p.sandbox.ReadFile(p.Path(rel))
}

// ReadText reads rel as a string.
func (p *Pack) ReadText(rel string) (string, error) {
	data, err := p.ReadFile(rel)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadJSON decodes rel into v.
func (p *Pack) ReadJSON(rel string, v any) error {
	data, err := p.ReadFile(rel)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	return nil
}

// ReadCSV reads rel as a header row followed by records.
func (p *Pack) ReadCSV(rel string) ([]map[string]string, error) {
	data, err := p.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	rows, err := parseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	return rows, nil
}

// ReadJSONL decodes one JSON object per non-blank line.
func (p *Pack) ReadJSONL(rel string) ([]map[string]any, error) {
	data, err := p.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", rel, n, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

func parseCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseAmount parses money text such as "$1,234.50" or "+12". Unparseable
// text yields NaN.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "$", "").Replace(s)
	f, err := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func round(f float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(f*p) / p
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
