package context

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Envelope is the value passed into and returned from every tool. It
// carries the payload alongside metadata and provenance information.
type Envelope struct {
	Payload    any      `json:"payload"`
	Meta       Metadata `json:"meta"`
	Provenance []Step   `json:"provenance"`
}

// Metadata carries information about the envelope's content and origin.
type Metadata struct {
	ContentType string            `json:"content_type"`
	Tags        map[string]string `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
	Source      string            `json:"source"`
}

// Step records a single tool invocation in the provenance chain.
type Step struct {
	Tool      string        `json:"tool"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"` // "ok" or "error"
}

// NewEnvelope creates a new Envelope with the given payload, content type, and source.
func NewEnvelope(payload any, contentType, source string) Envelope {
	return Envelope{
		Payload: payload,
		Meta: Metadata{
			ContentType: contentType,
			Tags:        make(map[string]string),
			CreatedAt:   time.Now(),
			Source:      source,
		},
		Provenance: []Step{},
	}
}

// NewArgs wraps named tool arguments in an envelope.
func NewArgs(args map[string]any, source string) Envelope {
	if args == nil {
		args = map[string]any{}
	}
	return NewEnvelope(args, "application/x-args", source)
}

// AddStep appends a provenance step to the envelope.
func (e *Envelope) AddStep(step Step) {
	e.Provenance = append(e.Provenance, step)
}

// PayloadString returns the payload as a string if possible.
// Returns the JSON representation for non-string payloads.
func (e *Envelope) PayloadString() string {
	switch v := e.Payload.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Args returns the payload as named arguments. A string payload is
// treated as the single argument "path"; anything else yields no arguments.
func (e *Envelope) Args() map[string]any {
	switch v := e.Payload.(type) {
	case map[string]any:
		return v
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	case string:
		if v == "" {
			return map[string]any{}
		}
		return map[string]any{"path": v}
	}
	return map[string]any{}
}

// StringArg returns a named argument rendered as a string, or "" when absent.
func (e *Envelope) StringArg(name string) string {
	v, ok := e.Args()[name]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// RequireString returns a non-empty string argument or an error naming it.
func (e *Envelope) RequireString(name string) (string, error) {
	s := strings.TrimSpace(e.StringArg(name))
	if s == "" {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	return s, nil
}

// IntArg returns a named integer argument, accepting numbers and numeric
// strings. def is returned when the argument is absent or empty.
func (e *Envelope) IntArg(name string, def int) (int, error) {
	v, ok := e.Args()[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return def, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("argument %q: %q is not an integer", name, n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("argument %q: unsupported type %T", name, v)
}
