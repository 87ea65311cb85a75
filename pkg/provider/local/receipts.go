package local

import (
	gocontext "context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/cgast/edgebench/pkg/tools/sqlite"
)

const receiptsDB = "receipts.db"

// receiptQueries are the summary statements run against receipts.db,
// keyed by the answer field they fill.
var receiptQueries = []struct {
	key   string
	stmt  string
	shape string // scalar, row or rows
}{
	{"total_spent", "SELECT SUM(price + tip) AS total_spent FROM receipts", "scalar"},
	{"receipt_count", "SELECT COUNT(*) AS receipt_count FROM receipts", "scalar"},
	{"smallest_tip", "SELECT MIN(tip) AS smallest_tip FROM receipts", "scalar"},
	{"highest_price_receipt", "SELECT * FROM receipts ORDER BY price DESC LIMIT 1", "row"},
	{"average_tip_by_customer", "SELECT customer_name, AVG(tip) AS average_tip FROM receipts GROUP BY customer_name ORDER BY customer_name", "rows"},
	{"spend_by_customer", "SELECT customer_name, SUM(price + tip) AS total_spent FROM receipts GROUP BY customer_name ORDER BY customer_name", "rows"},
}

// receiptsSummary answers the receipts pack from receipts.db: totals,
// counts and per-customer spending.
func receiptsSummary(ctx gocontext.Context, p *Pack) (any, error) {
	dbPath, err := findFile(p, receiptsDB)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(receiptQueries))
	for _, q := range receiptQueries {
		res, err := sqlite.Query(ctx, dbPath, q.stmt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.key, err)
		}
		recs := res.Records()
		switch q.shape {
		case "scalar":
			if len(res.Rows) > 0 && len(res.Rows[0]) > 0 {
				out[q.key] = scalar(res.Rows[0][0])
			}
		case "row":
			if len(recs) > 0 {
				out[q.key] = jsonRecord(recs[0])
			}
		default:
			rows := make([]any, len(recs))
			for i, r := range recs {
				rows[i] = jsonRecord(r)
			}
			out[q.key] = rows
		}
	}
	if v, ok := out["total_spent"].(float64); ok {
		out["total_spent"] = round(v, 2)
	}
	return out, nil
}

// findFile returns the file called name with the shortest path in the pack.
func findFile(p *Pack, name string) (string, error) {
	var matches []string
	err := filepath.WalkDir(p.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%s not found in %s", name, p.Dir)
	}
	sort.SliceStable(matches, func(i, j int) bool { return len(matches[i]) < len(matches[j]) })
	if err := p.sandbox.CheckPath(matches[0]); err != nil {
		return "", err
	}
	return matches[0], nil
}

func jsonRecord(r map[string]any) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = scalar(v)
	}
	return out
}

// scalar converts driver values into JSON-friendly ones.
func scalar(v any) any {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case []byte:
		return string(n)
	}
	return v
}
