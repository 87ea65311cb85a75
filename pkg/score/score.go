package score

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Tolerance is the absolute difference under which two numeric leaves
// are considered equal.
const Tolerance = 1e-2

// roundPlaces is the precision float leaves are rounded to before comparison.
const roundPlaces = 4

// Diff records the expected and actual value at a mismatching leaf.
type Diff struct {
	Expected any `json:"expected"`
	Got      any `json:"got"`
}

// Result holds the outcome of comparing a provider answer to the expected answer.
type Result struct {
	Score   float64         `json:"score"`
	Total   int             `json:"total"`
	Correct int             `json:"correct"`
	Diffs   map[string]Diff `json:"diffs"`
}

// Details is the per-provider detail block written to the run report.
// Error is set instead of the counts when the provider failed.
type Details struct {
	Total   int             `json:"total"`
	Correct int             `json:"correct"`
	Diffs   map[string]Diff `json:"diffs,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Details converts the result to its report form.
func (r Result) Details() Details {
	return Details{Total: r.Total, Correct: r.Correct, Diffs: r.Diffs}
}

// MismatchPaths returns the mismatching leaf paths in sorted order.
func (r Result) MismatchPaths() []string {
	paths := make([]string, 0, len(r.Diffs))
	for p := range r.Diffs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Compare scores got against expected. Only the leaves of expected are
// checked; leaves present only in got are ignored. An expected value with
// no leaves scores 0.
func Compare(expected, got any) Result {
	exp := Flatten(expected)
	gotFlat := Flatten(got)

	result := Result{
		Total: len(exp),
		Diffs: make(map[string]Diff),
	}

	for path, want := range exp {
		have := gotFlat[path]
		if leafEqual(want, have) {
			result.Correct++
			continue
		}
		result.Diffs[path] = Diff{Expected: want, Got: have}
	}

	if result.Total > 0 {
		result.Score = float64(result.Correct) / float64(result.Total)
	}
	return result
}

// Flatten decomposes a nested JSON-like value into path → scalar pairs.
// Map entries extend the path with "/key", sequence elements with "/index".
// A scalar at the root is stored under "/".
func Flatten(v any) map[string]any {
	out := make(map[string]any)
	flatten(v, "", out)
	return out
}

func flatten(v any, prefix string, out map[string]any) {
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			flatten(child, prefix+"/"+k, out)
		}
		return
	case []any:
		for i, child := range x {
			flatten(child, prefix+"/"+strconv.Itoa(i), out)
		}
		return
	}

	// Typed maps and slices built in Go code rather than decoded from JSON.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			iter := rv.MapRange()
			for iter.Next() {
				flatten(iter.Value().Interface(), prefix+"/"+iter.Key().String(), out)
			}
			return
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				flatten(rv.Index(i).Interface(), prefix+"/"+strconv.Itoa(i), out)
			}
			return
		}
	}

	if prefix == "" {
		prefix = "/"
	}
	out[prefix] = normalizeLeaf(v)
}

// normalizeLeaf rounds float leaves to absorb representation noise.
func normalizeLeaf(v any) any {
	switch n := v.(type) {
	case float64:
		return roundTo(n, roundPlaces)
	case float32:
		return roundTo(float64(n), roundPlaces)
	}
	return v
}

func roundTo(f float64, places int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	p := math.Pow10(places)
	return math.Round(f*p) / p
}

// leafEqual reports whether two leaves match: numerically within
// Tolerance, or exactly equal.
func leafEqual(want, have any) bool {
	wf, wok := toFloat(want)
	hf, hok := toFloat(have)
	if wok && hok {
		return math.Abs(wf-hf) <= Tolerance
	}
	return reflect.DeepEqual(want, have)
}

// toFloat converts any Go numeric kind to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
