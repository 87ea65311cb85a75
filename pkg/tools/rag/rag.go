// Package rag provides retrieval tools over indexed data directories. The
// freshness registry decides whether a directory's cached index is reused
// or rebuilt before each query.
package rag

import (
	gocontext "context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cgast/edgebench/internal/sandbox"
	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/events"
	"github.com/cgast/edgebench/pkg/freshness"
	"github.com/cgast/edgebench/pkg/index"
	"github.com/cgast/edgebench/pkg/tools"
)

// Retriever holds what both rag tools share.
type Retriever struct {
	Registry *freshness.Registry
	// Backend defaults to index.BoltBackend.
	Backend index.Backend
	// CacheRoot is where caches are created for unregistered directories.
	CacheRoot string
	// TopK is used when a query does not name one.
	TopK      int
	Sandbox   *sandbox.Sandbox
	Publisher events.Publisher
	Logger    *zap.Logger
}

// Answer is the result of one retrieval.
type Answer struct {
	DataDirectory string      `json:"data_directory"`
	Question      string      `json:"question"`
	Rebuilt       bool        `json:"rebuilt"`
	Reason        string      `json:"reason,omitempty"`
	Hits          []index.Hit `json:"hits"`
}

// Text renders the hits one block per passage.
func (a Answer) Text() string {
	var b strings.Builder
	b.WriteString("-----\n")
	for _, h := range a.Hits {
		text := strings.ReplaceAll(strings.TrimSpace(h.Passage.Text), "\n", " ")
		fmt.Fprintf(&b, "Text:\t %s\n", text)
		fmt.Fprintf(&b, "Metadata:\t %s\n", formatMetadata(h.Passage.Metadata))
		fmt.Fprintf(&b, "Score:\t %.3f\n", h.Score)
	}
	return b.String()
}

func formatMetadata(md map[string]string) string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, md[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Query ensures an up to date index for dataDir and retrieves the topK
// passages closest to question. topK <= 0 selects the retriever default.
func (r *Retriever) Query(ctx gocontext.Context, dataDir, question string, topK int) (Answer, error) {
	if r.Registry == nil {
		return Answer{}, fmt.Errorf("no registry configured")
	}
	if r.Sandbox != nil {
		if err := r.Sandbox.CheckPath(dataDir); err != nil {
			return Answer{}, err
		}
	}
	if topK <= 0 {
		topK = r.TopK
	}
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	backend := r.Backend
	if backend == nil {
		backend = index.BoltBackend{}
	}

	cacheDir, err := index.CacheDir(r.CacheRoot, dataDir)
	if err != nil {
		return Answer{}, err
	}
	ix, d, err := index.Ensure(ctx, r.Registry, backend, dataDir, index.EnsureOptions{
		DefaultCacheDir: cacheDir,
		Publisher:       r.Publisher,
		Logger:          r.Logger,
	})
	if err != nil {
		return Answer{}, err
	}

	return Answer{
		DataDirectory: d.DataDirectory,
		Question:      question,
		Rebuilt:       d.Rebuild,
		Reason:        d.Reason,
		Hits:          ix.Query(question, topK),
	}, nil
}

// QueryTool implements rag:query.
type QueryTool struct {
	Retriever *Retriever
}

func (c *QueryTool) Name() string { return "rag:query" }
func (c *QueryTool) Description() string {
	return "Retrieve passages from a data directory, rebuilding its index only when the data changed"
}
func (c *QueryTool) Namespace() string { return "rag" }

func (c *QueryTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"data_dir": {Type: "string", Description: "Directory whose files are indexed"},
		"question": {Type: "string", Description: "The query question for retrieval"},
		"top_k":    {Type: "integer", Description: "Number of passages to retrieve"},
	}, "data_dir", "question")
}

func (c *QueryTool) Execute(ctx gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	dataDir, err := input.RequireString("data_dir")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("rag:query: %w", err)
	}
	question, err := input.RequireString("question")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("rag:query: %w", err)
	}
	topK, err := input.IntArg("top_k", 0)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("rag:query: %w", err)
	}

	answer, err := c.Retriever.Query(ctx, dataDir, question, topK)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("rag:query: %w", err)
	}

	env := agctx.NewEnvelope(answer, "application/json", "rag:query")
	env.Meta.Tags["data_dir"] = answer.DataDirectory
	env.Meta.Tags["hits"] = fmt.Sprintf("%d", len(answer.Hits))
	if answer.Rebuilt {
		env.Meta.Tags["rebuilt"] = answer.Reason
	}
	return env, nil
}

// Answers is the result of querying every registered directory.
type Answers []Answer

// Text renders each directory's answer under a heading.
func (as Answers) Text() string {
	if len(as) == 0 {
		return "Registry is empty."
	}
	var b strings.Builder
	for _, a := range as {
		fmt.Fprintf(&b, "== %s ==\n", a.DataDirectory)
		b.WriteString(a.Text())
	}
	return b.String()
}

// QueryAllTool implements rag:query-all, which runs the same question
// against every directory in the registry.
type QueryAllTool struct {
	Retriever *Retriever
}

func (c *QueryAllTool) Name() string { return "rag:query-all" }
func (c *QueryAllTool) Description() string {
	return "Retrieve passages for a question from every registered data directory"
}
func (c *QueryAllTool) Namespace() string { return "rag" }

func (c *QueryAllTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"question": {Type: "string", Description: "The query question for retrieval"},
		"top_k":    {Type: "integer", Description: "Number of passages to retrieve per directory"},
	}, "question")
}

func (c *QueryAllTool) Execute(ctx gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	question, err := input.RequireString("question")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("rag:query-all: %w", err)
	}
	topK, err := input.IntArg("top_k", 0)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("rag:query-all: %w", err)
	}
	if c.Retriever.Registry == nil {
		return agctx.Envelope{}, fmt.Errorf("rag:query-all: no registry configured")
	}

	var answers Answers
	for _, e := range c.Retriever.Registry.Entries() {
		a, err := c.Retriever.Query(ctx, e.DataDirectory, question, topK)
		if err != nil {
			return agctx.Envelope{}, fmt.Errorf("rag:query-all: %s: %w", e.DataDirectory, err)
		}
		answers = append(answers, a)
	}

	env := agctx.NewEnvelope(answers, "application/json", "rag:query-all")
	env.Meta.Tags["directories"] = fmt.Sprintf("%d", len(answers))
	return env, nil
}
