// Package provider defines how the harness asks an answering system for
// a result, and how raw answers are normalized into JSON-shaped values.
package provider

import (
	gocontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoHandler is returned by providers that have no strategy for a prompt.
var ErrNoHandler = errors.New("no matching handler")

// RawKey wraps output that could not be parsed as JSON.
const RawKey = "_raw"

// ErrorKey holds the message of a failed provider call.
const ErrorKey = "_error"

// Provider answers a prompt about the documents in a pack directory.
// Implementations may ignore packDir.
type Provider interface {
	Name() string
	Run(ctx gocontext.Context, packDir, prompt string) (any, error)
}

// Func adapts a function to the Provider interface.
type Func struct {
	ID string
	Fn func(ctx gocontext.Context, packDir, prompt string) (any, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Run(ctx gocontext.Context, packDir, prompt string) (any, error) {
	return f.Fn(ctx, packDir, prompt)
}

// Outcome is the result of one provider call: either a value or an error.
type Outcome struct {
	Value any
	Err   error
}

// Failed reports whether the call produced an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Output returns the normalized value, or {"_error": msg} for a failure.
func (o Outcome) Output() any {
	if o.Err != nil {
		return map[string]any{ErrorKey: o.Err.Error()}
	}
	return Normalize(o.Value)
}

// Invoke calls p and captures any error or panic in the Outcome.
func Invoke(ctx gocontext.Context, p Provider, packDir, prompt string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("%s panicked: %v", p.Name(), r)}
		}
	}()
	v, err := p.Run(ctx, packDir, prompt)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Value: v}
}

// Normalize turns a provider's raw answer into a JSON-shaped value.
// Maps and slices pass through. Strings are parsed as JSON and wrapped as
// {"_raw": s} when that fails. Other scalars are wrapped as {"_raw": text}.
// Any other Go value round-trips through encoding/json.
func Normalize(raw any) any {
	switch v := raw.(type) {
	case map[string]any, []any:
		return v
	case string:
		return parseOrWrap(v)
	case []byte:
		return parseOrWrap(string(v))
	case nil:
		return map[string]any{RawKey: "null"}
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return map[string]any{RawKey: fmt.Sprint(v)}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return map[string]any{RawKey: fmt.Sprint(raw)}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{RawKey: string(data)}
	}
	return out
}

func parseOrWrap(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return map[string]any{RawKey: s}
	}
	return v
}

// ExtractJSON parses model text that may surround a JSON document with
// prose or markdown fences. It tries the whole text, then the longest
// parseable document starting at the first '{' or '['. Text with no JSON
// in it comes back as {"_raw": text}.
func ExtractJSON(text string) any {
	text = strings.TrimSpace(text)

	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v
	}

	start := strings.IndexAny(text, "{[")
	if start >= 0 {
		for end := len(text); end > start; end-- {
			if c := text[end-1]; c != '}' && c != ']' {
				continue
			}
			if err := json.Unmarshal([]byte(text[start:end]), &v); err == nil {
				return v
			}
		}
	}
	return map[string]any{RawKey: text}
}
