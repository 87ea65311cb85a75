package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cgast/edgebench/internal/inspector"
	"github.com/cgast/edgebench/pkg/catalog"
	"github.com/cgast/edgebench/pkg/harness"
)

type harnessFlags struct {
	packs     string
	out       string
	runsDir   string
	tasksFile string
	only      []string
	inspect   string
}

func newHarnessCmd(a *app) *cobra.Command {
	var f harnessFlags
	cmd := &cobra.Command{
		Use:   "harness",
		Short: "Run the task catalog against both providers and write a report",
		Long: `Runs every cataloged task against the general provider and the local
agent, scores both against the pack's expected answers, saves per-task
artifacts under --runsDir and writes one JSON report to --out.

Skipped tasks and provider failures do not fail the run; only a report
that cannot be written does.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarness(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.packs, "packs", "", "root directory containing the pack folders")
	cmd.Flags().StringVar(&f.out, "out", "", "report destination")
	cmd.Flags().StringVar(&f.runsDir, "runsDir", "", "per-task artifact root (default from config, else runs)")
	cmd.Flags().StringVar(&f.tasksFile, "tasks", "", "YAML catalog with additional tasks")
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "run only the named tasks")
	cmd.Flags().StringVar(&f.inspect, "inspect", "", "serve the run inspector on this address")
	return cmd
}

// loadTasks returns the static catalog plus the tasks of file, if any.
func loadTasks(file string) ([]catalog.Task, error) {
	tasks := catalog.Tasks()
	if file == "" {
		return tasks, nil
	}
	extra, err := catalog.LoadFile(file)
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, extra...)
	if result := catalog.Validate(tasks); !result.Valid() {
		return nil, fmt.Errorf("%s: %w", file, result)
	}
	return tasks, nil
}

func runHarness(cmd *cobra.Command, a *app, f harnessFlags) error {
	if f.packs == "" {
		f.packs = a.cfg.Harness.Packs
	}
	if f.packs == "" || f.out == "" {
		return fmt.Errorf("--packs and --out are required")
	}
	if f.runsDir == "" {
		f.runsDir = a.cfg.Harness.RunsDir
	}
	if f.tasksFile == "" {
		f.tasksFile = a.cfg.Harness.TasksFile
	}

	tasks, err := loadTasks(f.tasksFile)
	if err != nil {
		return err
	}
	tasks = catalog.Filter(tasks, f.only)

	gp, la, err := a.providers()
	if err != nil {
		return err
	}

	var insp *inspector.Server
	if f.inspect != "" {
		reg, err := a.tools()
		if err != nil {
			return err
		}
		insp = inspector.New(a.bus, reg, a.logger)
		insp.StartAsync(f.inspect)
	}

	out := cmd.OutOrStdout()
	d := harness.New(gp, la,
		harness.WithLogger(a.logger),
		harness.WithPublisher(a.bus),
		harness.WithRunsDir(f.runsDir),
		harness.WithOutput(out),
	)
	a.logger.Info("running harness",
		zap.String("general_model", gp.Model()),
		zap.Strings("local_handlers", la.Handlers()),
		zap.Int("tasks", len(tasks)))

	report, err := d.Run(cmd.Context(), f.packs, tasks)
	if err != nil {
		return err
	}
	if insp != nil {
		insp.SetReport(report)
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, harness.RenderTable(report))
	if err := d.WriteReport(f.out, report); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n[done] Wrote report to %s\n", f.out)
	fmt.Fprintf(out, "General LLM avg: %.2f | Local Agent avg: %.2f\n",
		report.Summary.GeneralAvg, report.Summary.LocalAvg)
	return nil
}
