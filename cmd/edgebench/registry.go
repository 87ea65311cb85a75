package main

import (
	"github.com/spf13/cobra"
)

func newRegistryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and maintain the data registry",
	}

	var dataDir, status, cacheDir, format string
	update := &cobra.Command{
		Use:   "update",
		Short: "Add or replace the entry for a data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd, "registry:update", map[string]any{
				"data_directory":  dataDir,
				"status":          status,
				"cache_directory": cacheDir,
				"data_format":     format,
			})
		},
	}
	update.Flags().StringVar(&dataDir, "data-dir", "", "data directory")
	update.Flags().StringVar(&status, "status", "", "indexing status")
	update.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory")
	update.Flags().StringVar(&format, "format", "", "data format")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd, "registry:list", nil)
		},
	}

	clr := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cache directory and the registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd, "registry:clear", nil)
		},
	}

	find := &cobra.Command{
		Use:   "find DIR",
		Short: "Show the entry for one data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd, "registry:find", map[string]any{"data_directory": args[0]})
		},
	}

	cmd.AddCommand(update, list, clr, find)
	return cmd
}
