// Command ragctl runs ingestion, asks questions and serves the MCP tool
// against the same index the API server uses.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"portfolio-rag/internal/app"
	"portfolio-rag/internal/config"
)

var version = "dev"

var (
	logLevel string
	asJSON   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Portfolio RAG command line tool",
	Long: `ragctl operates on the portfolio index configured through the environment
(or a .env file): the uploads directory, the SQLite catalog and the vector store.

Available subcommands:
  ingest - Index the uploads directory
  ask    - Ask a question and print the answer
  mcp    - Serve the ask_portfolio tool over stdio`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openApp loads configuration and builds the application. Logs go to stderr
// so stdout stays free for results and the MCP protocol.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	slog.SetDefault(app.NewLogger(os.Stderr, level, cfg.LogFormat))

	return app.New(ctx, cfg)
}
