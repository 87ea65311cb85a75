package catalog

import (
	"fmt"
	"math"
	"strconv"
)

// Task describes one evaluation: a prompt sent to every provider and the
// location of its expected answer inside a pack.
type Task struct {
	Name          string    `yaml:"name" json:"name"`
	PackGlob      string    `yaml:"pack_glob" json:"pack_glob"`
	AnswerPath    string    `yaml:"answer_path" json:"answer_path"`
	AnswerKeyPath []string  `yaml:"answer_key_path" json:"answer_key_path"`
	Prompt        string    `yaml:"prompt" json:"prompt"`
	Extractor     Extractor `yaml:"extractor,omitempty" json:"extractor,omitempty"`
}

// ExtractorKind names one of the closed set of result transformations.
type ExtractorKind string

const (
	ExtractIdentity    ExtractorKind = "identity"
	ExtractField       ExtractorKind = "extract_field"
	ExtractRoundFields ExtractorKind = "round_fields"
)

// defaultRoundPlaces is used by round_fields when Places is unset.
const defaultRoundPlaces = 2

// Extractor transforms a normalized provider answer into the shape that is
// compared against the expected answer. The zero value is the identity.
type Extractor struct {
	Kind   ExtractorKind `yaml:"kind" json:"kind"`
	Field  string        `yaml:"field,omitempty" json:"field,omitempty"`
	Fields []string      `yaml:"fields,omitempty" json:"fields,omitempty"`
	Places *int          `yaml:"places,omitempty" json:"places,omitempty"`
}

// Identity returns the pass-through extractor.
func Identity() Extractor { return Extractor{Kind: ExtractIdentity} }

// Field returns an extractor that descends into one field of an object
// answer, falling back to the whole answer when the field is absent.
func Field(name string) Extractor { return Extractor{Kind: ExtractField, Field: name} }

// RoundFields returns an extractor that keeps only the named numeric fields,
// rounded to places decimals. Missing fields become 0; a null field is an
// error.
func RoundFields(places int, names ...string) Extractor {
	return Extractor{Kind: ExtractRoundFields, Fields: names, Places: &places}
}

// Apply runs the extractor. It fails when the answer does not have the
// shape the extractor requires.
func (e Extractor) Apply(v any) (any, error) {
	switch e.Kind {
	case "", ExtractIdentity:
		return v, nil

	case ExtractField:
		obj, ok := v.(map[string]any)
		if !ok {
			return v, nil
		}
		if inner, ok := obj[e.Field]; ok {
			return inner, nil
		}
		return v, nil

	case ExtractRoundFields:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("round_fields: expected object, got %T", v)
		}
		places := defaultRoundPlaces
		if e.Places != nil {
			places = *e.Places
		}
		out := make(map[string]any, len(e.Fields))
		for _, name := range e.Fields {
			raw, ok := obj[name]
			if !ok {
				out[name] = 0.0
				continue
			}
			if raw == nil {
				return nil, fmt.Errorf("round_fields: field %q is null", name)
			}
			f, ok := asFloat(raw)
			if !ok {
				return nil, fmt.Errorf("round_fields: field %q is %T, not a number", name, raw)
			}
			p := math.Pow10(places)
			out[name] = math.Round(f*p) / p
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown extractor kind %q", e.Kind)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Descend walks a key path into a decoded JSON document. Segments index
// objects by key and arrays by decimal position.
func Descend(doc any, path []string) (any, error) {
	cur := doc
	for i, key := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("key %q not found at %s", key, joinPath(path[:i]))
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("index %q at %s is not a number", key, joinPath(path[:i]))
			}
			if idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %d out of range at %s (len %d)", idx, joinPath(path[:i]), len(node))
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %s", cur, joinPath(path[:i]))
		}
	}
	return cur, nil
}

func joinPath(path []string) string {
	s := ""
	for _, p := range path {
		s += "/" + p
	}
	if s == "" {
		return "/"
	}
	return s
}
