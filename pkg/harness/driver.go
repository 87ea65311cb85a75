// Package harness runs the task catalog against a general provider and a
// local agent, scores both and writes a comparison report.
package harness

import (
	gocontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cgast/edgebench/pkg/catalog"
	"github.com/cgast/edgebench/pkg/events"
	"github.com/cgast/edgebench/pkg/provider"
	"github.com/cgast/edgebench/pkg/score"
)

// State is a step of the per-task state machine.
type State string

const (
	StateStart        State = "start"
	StateLocatePack   State = "locate_pack"
	StateLoadExpected State = "load_expected"
	StateRunGeneral   State = "run_general_provider"
	StateRunLocal     State = "run_local_provider"
	StateScoreBoth    State = "score_both"
	StatePersist      State = "persist_artifacts"
	StateCompleted    State = "completed"
	StateSkipped      State = "skipped"
)

// DefaultRunsDir is the default root for per-task artifacts.
const DefaultRunsDir = "runs"

// Driver evaluates tasks one at a time against two providers.
type Driver struct {
	general   provider.Provider
	local     provider.Provider
	runsDir   string
	logger    *zap.Logger
	publisher events.Publisher
	out       io.Writer
	now       func() time.Time
	newID     func() string
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithPublisher sets where state transition events go.
func WithPublisher(p events.Publisher) Option {
	return func(d *Driver) { d.publisher = p }
}

// WithRunsDir sets the artifact root.
func WithRunsDir(dir string) Option {
	return func(d *Driver) {
		if dir != "" {
			d.runsDir = dir
		}
	}
}

// WithOutput sets where per-task progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) {
		if w != nil {
			d.out = w
		}
	}
}

// WithClock overrides the run start clock.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// WithRunID overrides run id generation.
func WithRunID(fn func() string) Option {
	return func(d *Driver) { d.newID = fn }
}

// New creates a driver comparing general against local.
func New(general, local provider.Provider, opts ...Option) *Driver {
	d := &Driver{
		general: general,
		local:   local,
		runsDir: DefaultRunsDir,
		logger:  zap.NewNop(),
		out:     io.Discard,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunsDir returns the artifact root.
func (d *Driver) RunsDir() string { return d.runsDir }

// Run evaluates every task against the packs under packsDir. Skipped tasks
// and provider failures never abort the run; only a failure to create the
// artifact root does.
func (d *Driver) Run(ctx gocontext.Context, packsDir string, tasks []catalog.Task) (*Report, error) {
	if err := os.MkdirAll(d.runsDir, 0755); err != nil {
		return nil, fmt.Errorf("harness: runs dir: %w", err)
	}

	report := &Report{
		RunID:     d.newID(),
		StartedAt: d.now().UTC(),
		Results:   []TaskReport{},
	}
	d.logger.Info("harness run started",
		zap.String("run_id", report.RunID),
		zap.String("packs", packsDir),
		zap.Int("tasks", len(tasks)))
	events.Emit(d.publisher, events.NewEvent(events.EventRunStart, report.RunID, map[string]any{
		"packs": packsDir,
		"tasks": len(tasks),
	}))

	for _, task := range tasks {
		tr, state, err := d.runTask(ctx, packsDir, task)
		if err != nil {
			report.Skipped = append(report.Skipped, Skip{Task: task.Name, State: state, Err: err.Error()})
			d.logSkip(task, state, err)
			events.Emit(d.publisher, events.NewEvent(events.EventTaskSkipped, task.Name, map[string]any{
				"state": string(state),
				"error": err.Error(),
			}))
			continue
		}
		report.Results = append(report.Results, tr)
		fmt.Fprintf(d.out, "[task] %s → LLM %.2f | Agent %.2f\n",
			task.Name, tr.GeneralProvider.Score, tr.LocalAgent.Score)
		d.logger.Info("task completed",
			zap.String("task", task.Name),
			zap.Float64("general", tr.GeneralProvider.Score),
			zap.Float64("local", tr.LocalAgent.Score))
		events.Emit(d.publisher, events.NewEvent(events.EventTaskCompleted, task.Name, map[string]any{
			"general": tr.GeneralProvider.Score,
			"local":   tr.LocalAgent.Score,
			"winner":  Winner(tr.GeneralProvider.Score, tr.LocalAgent.Score),
		}))
	}

	report.Summary = summarize(report.Results)
	end := events.NewEvent(events.EventRunEnd, report.RunID, report.Summary)
	end.Duration = d.now().Sub(report.StartedAt)
	events.Emit(d.publisher, end)
	d.logger.Info("harness run finished",
		zap.String("run_id", report.RunID),
		zap.Int("completed", len(report.Results)),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// WriteReport writes the report to path and announces it.
func (d *Driver) WriteReport(path string, r *Report) error {
	if err := WriteReport(path, r); err != nil {
		return err
	}
	d.logger.Info("report written", zap.String("path", path))
	events.Emit(d.publisher, events.NewEvent(events.EventReportWritten, path, map[string]any{
		"run_id": r.RunID,
	}))
	return nil
}

// runTask walks one task through the state machine. A non-nil error means
// the task was skipped at the returned state.
func (d *Driver) runTask(ctx gocontext.Context, packsDir string, task catalog.Task) (tr TaskReport, state State, err error) {
	state = StateStart
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", state, r)
		}
	}()
	d.transition(task.Name, state)

	state = StateLocatePack
	d.transition(task.Name, state)
	packDir, err := LocatePack(packsDir, task.PackGlob)
	if err != nil {
		return tr, state, err
	}

	state = StateLoadExpected
	d.transition(task.Name, state)
	expected, err := LoadExpected(packDir, task)
	if err != nil {
		return tr, state, err
	}

	state = StateRunGeneral
	d.transition(task.Name, state)
	general := provider.Invoke(ctx, d.general, packDir, task.Prompt)

	state = StateRunLocal
	d.transition(task.Name, state)
	local := provider.Invoke(ctx, d.local, packDir, task.Prompt)

	state = StateScoreBoth
	d.transition(task.Name, state)
	genResult := d.score(task, d.general.Name(), general, expected)
	locResult := d.score(task, d.local.Name(), local, expected)

	state = StatePersist
	d.transition(task.Name, state)
	artifacts := filepath.Join(d.runsDir, task.Name)
	if werr := writeArtifacts(artifacts, expected, genResult.Output, locResult.Output); werr != nil {
		d.logger.Error("artifacts not written",
			zap.String("task", task.Name),
			zap.String("dir", artifacts),
			zap.Error(werr))
	}

	d.transition(task.Name, StateCompleted)
	return TaskReport{
		Task:            task.Name,
		PackDir:         packDir,
		Prompt:          task.Prompt,
		ExpectedKeys:    task.AnswerKeyPath,
		GeneralProvider: genResult,
		LocalAgent:      locResult,
		ArtifactsDir:    artifacts,
	}, StateCompleted, nil
}

// score applies the task extractor and compares against expected. A
// provider error or an extraction error scores 0 with the message kept in
// the details.
func (d *Driver) score(task catalog.Task, name string, o provider.Outcome, expected any) ProviderResult {
	if !o.Failed() {
		extracted, err := task.Extractor.Apply(o.Output())
		if err == nil {
			res := score.Compare(expected, extracted)
			return ProviderResult{Score: res.Score, Details: res.Details(), Output: extracted}
		}
		o = provider.Outcome{Err: fmt.Errorf("extract: %w", err)}
	}

	d.logger.Warn("provider failed",
		zap.String("task", task.Name),
		zap.String("provider", name),
		zap.Error(o.Err))
	events.Emit(d.publisher, events.NewEvent(events.EventProviderFailed, task.Name, map[string]any{
		"provider": name,
		"error":    o.Err.Error(),
	}))
	return ProviderResult{
		Score:   0,
		Details: score.Details{Error: o.Err.Error()},
		Output:  o.Output(),
	}
}

func (d *Driver) transition(task string, s State) {
	d.logger.Debug("task state", zap.String("task", task), zap.String("state", string(s)))
	if s == StateStart {
		events.Emit(d.publisher, events.NewEvent(events.EventTaskStart, task, nil))
	}
}

func (d *Driver) logSkip(task catalog.Task, state State, err error) {
	fields := []zap.Field{
		zap.String("task", task.Name),
		zap.String("state", string(state)),
		zap.Error(err),
	}
	if errors.Is(err, ErrPackNotFound) {
		d.logger.Warn("task skipped", append(fields, zap.String("pack_glob", task.PackGlob))...)
		return
	}
	d.logger.Error("task skipped", fields...)
}
