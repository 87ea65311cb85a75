package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a catalog.
type ValidationResult struct {
	Errors []ValidationError
}

// Valid returns true if no validation errors were found.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message from all validation errors.
func (r ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (r *ValidationResult) add(field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks tasks for required fields, unique names, well-formed
// pack globs and known extractor kinds.
func Validate(tasks []Task) ValidationResult {
	var result ValidationResult

	if len(tasks) == 0 {
		result.add("tasks", "at least one task required")
		return result
	}

	names := make(map[string]int)
	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)

		if strings.TrimSpace(t.Name) == "" {
			result.add(prefix+".name", "required")
		} else if strings.ContainsAny(t.Name, `/\`) || strings.Contains(t.Name, "..") {
			result.add(prefix+".name", "%q must not contain a path separator or \"..\"", t.Name)
		} else if first, dup := names[t.Name]; dup {
			result.add(prefix+".name", "duplicate name %q (first at tasks[%d])", t.Name, first)
		} else {
			names[t.Name] = i
		}

		if t.PackGlob == "" {
			result.add(prefix+".pack_glob", "required")
		} else if _, err := filepath.Match(t.PackGlob, ""); err != nil {
			result.add(prefix+".pack_glob", "invalid pattern %q: %v", t.PackGlob, err)
		}

		if t.AnswerPath == "" {
			result.add(prefix+".answer_path", "required")
		} else if filepath.IsAbs(t.AnswerPath) {
			result.add(prefix+".answer_path", "must be relative to the pack directory")
		}

		if strings.TrimSpace(t.Prompt) == "" {
			result.add(prefix+".prompt", "required")
		}

		switch t.Extractor.Kind {
		case "", ExtractIdentity:
		case ExtractField:
			if t.Extractor.Field == "" {
				result.add(prefix+".extractor.field", "required for extract_field")
			}
		case ExtractRoundFields:
			if len(t.Extractor.Fields) == 0 {
				result.add(prefix+".extractor.fields", "required for round_fields")
			}
			if t.Extractor.Places != nil && *t.Extractor.Places < 0 {
				result.add(prefix+".extractor.places", "must not be negative")
			}
		default:
			result.add(prefix+".extractor.kind", "unknown extractor kind %q", t.Extractor.Kind)
		}
	}

	return result
}
