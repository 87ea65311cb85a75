package main

import (
	"github.com/spf13/cobra"
)

func newRAGCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rag",
		Short: "Query cached document indexes",
	}

	var dataDir, question string
	var topK int
	query := &cobra.Command{
		Use:   "query",
		Short: "Retrieve the passages most relevant to a question",
		Long: `Retrieves passages from the index of --data-dir. The index is rebuilt
when the directory has no registry entry, its cache is missing or its
files changed since the last build; otherwise the cached index is reused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{"data_dir": dataDir, "question": question}
			if topK > 0 {
				params["top_k"] = topK
			}
			return a.runTool(cmd, "rag:query", params)
		},
	}
	query.Flags().StringVar(&dataDir, "data-dir", "", "directory whose files are indexed")
	query.Flags().StringVar(&question, "question", "", "question to retrieve passages for")
	query.Flags().IntVar(&topK, "top-k", 0, "number of passages (default from config)")
	_ = query.MarkFlagRequired("data-dir")
	_ = query.MarkFlagRequired("question")

	all := &cobra.Command{
		Use:   "query-all",
		Short: "Ask one question of every registered directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{"question": question}
			if topK > 0 {
				params["top_k"] = topK
			}
			return a.runTool(cmd, "rag:query-all", params)
		},
	}
	all.Flags().StringVar(&question, "question", "", "question to retrieve passages for")
	all.Flags().IntVar(&topK, "top-k", 0, "number of passages per directory")
	_ = all.MarkFlagRequired("question")

	cmd.AddCommand(query, all)
	return cmd
}
