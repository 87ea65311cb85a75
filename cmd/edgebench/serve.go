package main

import (
	"github.com/spf13/cobra"

	"github.com/cgast/edgebench/internal/mcpserver"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve every tool over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.tools()
			if err != nil {
				return err
			}
			srv := mcpserver.New(reg, version,
				mcpserver.WithLogger(a.logger),
				mcpserver.WithPublisher(a.bus))
			return srv.ServeStdio()
		},
	}
}
