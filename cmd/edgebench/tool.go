package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/tools"
)

func newToolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "List and run registered tools",
	}

	list := &cobra.Command{
		Use:   "list [namespace]",
		Short: "List registered tools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.tools()
			if err != nil {
				return err
			}
			ns := ""
			if len(args) == 1 {
				ns = args[0]
			}
			for _, t := range reg.List(ns) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", t.Name(), t.Description())
			}
			return nil
		},
	}

	var rawArgs []string
	run := &cobra.Command{
		Use:   "run NAME",
		Short: "Run one tool",
		Long: `Runs a tool by name with arguments given as --arg key=value.

Example:
  edgebench tool run sql:query --arg db_path=receipts.db --arg sql="SELECT * FROM receipts"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseToolArgs(rawArgs)
			if err != nil {
				return err
			}
			return a.runTool(cmd, args[0], params)
		},
	}
	run.Flags().StringArrayVar(&rawArgs, "arg", nil, "tool argument as key=value (repeatable)")

	cmd.AddCommand(list, run)
	return cmd
}

// parseToolArgs turns key=value pairs into a tool argument map.
func parseToolArgs(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --arg %q: want key=value", p)
		}
		params[strings.TrimSpace(k)] = v
	}
	return params, nil
}

// runTool resolves name, calls it with params and prints the rendered
// result.
func (a *app) runTool(cmd *cobra.Command, name string, params map[string]any) error {
	reg, err := a.tools()
	if err != nil {
		return err
	}
	t, err := reg.Resolve(name)
	if err != nil {
		return err
	}
	out, err := tools.Call(cmd.Context(), t, agctx.NewArgs(params, "cli"), a.bus)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tools.Render(out))
	return nil
}
