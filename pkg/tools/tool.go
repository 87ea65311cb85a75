// Package tools defines the callable tool interface shared by the CLI, the
// MCP server and the local agent.
package tools

import (
	gocontext "context"
	"time"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/events"
)

// Tool is a named operation taking named arguments in an Envelope.
type Tool interface {
	// Identity
	Name() string
	Description() string
	Namespace() string

	// Schema
	InputSchema() Schema

	// Execution
	Execute(ctx gocontext.Context, input agctx.Envelope) (agctx.Envelope, error)
}

// Schema describes the arguments a tool accepts.
type Schema struct {
	Type       string                 `json:"type"`
	Properties map[string]SchemaField `json:"properties"`
	Required   []string               `json:"required"`
}

// SchemaField describes a single argument.
type SchemaField struct {
	Type        string `json:"type"` // "string", "integer", "number" or "boolean"
	Description string `json:"description"`
}

// Object builds an object schema from fields; names listed in required
// must appear in fields.
func Object(fields map[string]SchemaField, required ...string) Schema {
	return Schema{Type: "object", Properties: fields, Required: required}
}

// Call executes t, records a provenance step on the result and publishes
// a tool.call event on p when p is non-nil.
func Call(ctx gocontext.Context, t Tool, input agctx.Envelope, p events.Publisher) (agctx.Envelope, error) {
	start := time.Now()
	out, err := t.Execute(ctx, input)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	ev := events.NewEvent(events.EventToolCall, t.Name(), map[string]any{"status": status})
	ev.Duration = duration
	events.Emit(p, ev)

	if err != nil {
		return agctx.Envelope{}, err
	}
	out.AddStep(agctx.Step{
		Tool:      t.Name(),
		Timestamp: start,
		Duration:  duration,
		Status:    status,
	})
	return out, nil
}

// Texter is implemented by payloads with a human-readable rendering.
type Texter interface {
	Text() string
}

// Render returns the text form of an envelope's payload: its Text method
// when it has one, otherwise the payload string.
func Render(env agctx.Envelope) string {
	if t, ok := env.Payload.(Texter); ok {
		return t.Text()
	}
	return env.PayloadString()
}
