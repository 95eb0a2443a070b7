package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestReset bool

// ingestCmd indexes the uploads directory
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the uploads directory",
	Long: `Index every corpus file in the uploads directory.

By default only new or changed documents are embedded and documents that
disappeared are removed. With --reset the collection is dropped and rebuilt.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "Drop the collection and rebuild it from scratch")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	stats, err := a.IngestService.Ingest(ctx, ingestReset)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(out, "documents: %d\nchunks: %d\nskipped_too_small: %d\nunchanged: %d\nremoved: %d\n",
		stats.Documents, stats.Chunks, stats.SkippedTooSmall, stats.Unchanged, stats.Removed)
	return nil
}
