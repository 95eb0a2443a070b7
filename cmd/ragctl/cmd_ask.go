package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-rag/internal/service"
)

var askTopK int

// askCmd answers one question
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the portfolio",
	Long: `Ask a question in Portuguese or English and print the answer.
Sources are printed when SHOW_SOURCES is enabled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "Number of chunks to retrieve, 1 to 10 (default 4)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	resp, err := a.QueryService.Query(ctx, service.QueryRequest{
		Message: strings.Join(args, " "),
		TopK:    askTopK,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Fprintln(out, resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, s := range resp.Sources {
			fmt.Fprintf(out, "  - %s (%.4f)\n", s.SourceName, s.Score)
		}
	}
	return nil
}
