package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cgast/edgebench/pkg/catalog"
)

func newTasksCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Print the task catalog",
		Long: `Prints the built-in task catalog. With --file, the YAML catalog is
validated and its tasks are listed after the built-in ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadTasks(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tasks {
				kind := string(t.Extractor.Kind)
				if kind == "" {
					kind = string(catalog.ExtractIdentity)
				}
				fmt.Fprintf(out, "%-22s %-12s %s#%s  [%s]\n",
					t.Name, t.PackGlob, t.AnswerPath, strings.Join(t.AnswerKeyPath, "/"), kind)
			}
			fmt.Fprintf(out, "%d task(s)\n", len(tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog to validate and include")
	return cmd
}
