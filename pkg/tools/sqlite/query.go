// Package sqlite provides the sql:query tool over SQLite database files.
package sqlite

import (
	gocontext "context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cgast/edgebench/internal/sandbox"
	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/tools"
)

// QueryTool implements sql:query.
type QueryTool struct {
	Sandbox *sandbox.Sandbox
}

func (c *QueryTool) Name() string        { return "sql:query" }
func (c *QueryTool) Description() string { return "Execute a SQL statement on an SQLite database file" }
func (c *QueryTool) Namespace() string   { return "sql" }

func (c *QueryTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"db_path": {Type: "string", Description: "Path to the SQLite database file"},
		"sql":     {Type: "string", Description: "The SQL statement to execute"},
	}, "db_path", "sql")
}

func (c *QueryTool) Execute(ctx gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	dbPath, err := input.RequireString("db_path")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("sql:query: %w", err)
	}
	stmt, err := input.RequireString("sql")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("sql:query: %w", err)
	}
	if c.Sandbox != nil {
		if err := c.Sandbox.CheckPath(dbPath); err != nil {
			return agctx.Envelope{}, fmt.Errorf("sql:query: %w", err)
		}
	}

	result, err := Query(ctx, dbPath, stmt)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("sql:query: %w", err)
	}

	env := agctx.NewEnvelope(result, "application/json", "sql:query")
	env.Meta.Tags["db"] = dbPath
	env.Meta.Tags["rows"] = fmt.Sprintf("%d", len(result.Rows))
	return env, nil
}

// Result is the outcome of one statement.
type Result struct {
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
	// Returning is true for statements that produce a result set.
	Returning bool `json:"returning"`
}

// Text renders the result with " | " separated columns, header first.
func (r Result) Text() string {
	if !r.Returning {
		return fmt.Sprintf("Query executed successfully; %d row(s) affected.", r.RowsAffected)
	}
	if len(r.Rows) == 0 {
		return "Query executed, but no rows returned."
	}
	lines := make([]string, 0, len(r.Rows)+1)
	lines = append(lines, strings.Join(r.Columns, " | "))
	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}

// Records returns the rows as column-keyed maps.
func (r Result) Records() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Open opens an existing database file. It never creates one.
func Open(dbPath string) (*sql.DB, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}
	db, err := sql.Open("sqlite", abs)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	return db, nil
}

// Query runs one statement against the database at dbPath.
func Query(ctx gocontext.Context, dbPath, stmt string) (Result, error) {
	db, err := Open(dbPath)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()

	if !returnsRows(stmt) {
		res, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return Result{}, fmt.Errorf("exec: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return Result{}, fmt.Errorf("rows affected: %w", err)
		}
		return Result{RowsAffected: n}, nil
	}

	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return Result{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("columns: %w", err)
	}
	result := Result{Columns: cols, Returning: true}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}

// returnsRows reports whether stmt produces a result set, judged by its
// leading keyword.
func returnsRows(stmt string) bool {
	fields := strings.Fields(strings.TrimSpace(stmt))
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(strings.TrimLeft(fields[0], "(")) {
	case "SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES":
		return true
	}
	return false
}
