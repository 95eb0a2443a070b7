package main

import (
	"github.com/spf13/cobra"

	"portfolio-rag/internal/mcpserver"
)

// mcpCmd serves the ask_portfolio tool over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ask_portfolio tool over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the
ask_portfolio tool. Logs are written to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	return mcpserver.Serve(ctx, mcpserver.New(a.QueryService, version))
}
