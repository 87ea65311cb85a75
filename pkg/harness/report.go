package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cgast/edgebench/pkg/score"
)

// Artifact file names written per task.
const (
	ExpectedFile = "expected.json"
	GeneralFile  = "general_provider.json"
	LocalFile    = "local_agent.json"
)

// ProviderResult is one provider's score on one task.
type ProviderResult struct {
	Score   float64       `json:"score"`
	Details score.Details `json:"details"`
	// Output is the extracted answer that was scored.
	Output any `json:"-"`
}

// Failed reports whether the provider call or its extraction failed.
func (r ProviderResult) Failed() bool { return r.Details.Error != "" }

// TaskReport is the record of one completed task.
type TaskReport struct {
	Task            string         `json:"task"`
	PackDir         string         `json:"packDir"`
	Prompt          string         `json:"prompt"`
	ExpectedKeys    []string       `json:"expectedKeys"`
	GeneralProvider ProviderResult `json:"generalProvider"`
	LocalAgent      ProviderResult `json:"localAgent"`
	ArtifactsDir    string         `json:"artifactsDir"`
}

// Summary holds the per-provider means over completed tasks.
type Summary struct {
	GeneralAvg float64 `json:"generalAvg"`
	LocalAvg   float64 `json:"localAvg"`
	TaskCount  int     `json:"taskCount"`
}

// Skip records a task that ended in the skipped state.
type Skip struct {
	Task  string `json:"task"`
	State State  `json:"state"`
	Err   string `json:"error"`
}

// Report is the result of one harness run.
type Report struct {
	RunID     string       `json:"runId"`
	StartedAt time.Time    `json:"startedAt"`
	Results   []TaskReport `json:"results"`
	Summary   Summary      `json:"summary"`
	// Skipped tasks are kept out of the report document.
	Skipped []Skip `json:"-"`
}

// summarize computes the means over the completed tasks.
func summarize(results []TaskReport) Summary {
	s := Summary{TaskCount: len(results)}
	if len(results) == 0 {
		return s
	}
	for _, r := range results {
		s.GeneralAvg += r.GeneralProvider.Score
		s.LocalAvg += r.LocalAgent.Score
	}
	s.GeneralAvg /= float64(len(results))
	s.LocalAvg /= float64(len(results))
	return s
}

// WriteReport writes r as indented JSON, replacing any existing file.
func WriteReport(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	data, err := marshalIndent(r)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return &r, nil
}

// writeArtifacts saves the expected answer and both provider outputs
// under dir.
func writeArtifacts(dir string, expected, general, local any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for name, v := range map[string]any{
		ExpectedFile: expected,
		GeneralFile:  general,
		LocalFile:    local,
	} {
		data, err := marshalIndent(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// marshalIndent encodes v with two-space indentation and without HTML
// escaping.
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
