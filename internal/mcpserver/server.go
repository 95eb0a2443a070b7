// Package mcpserver exposes the portfolio question answering over the Model Context Protocol.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/service"
)

const (
	serverName = "portfolio-rag"
	// ToolName is the name clients call to ask a question.
	ToolName = "ask_portfolio"
)

// AskInput is the tool argument schema.
type AskInput struct {
	Message string `json:"message" jsonschema:"question about the portfolio, in Portuguese or English"`
	TopK    int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve, 1 to 10"`
}

// AskOutput is the structured tool result.
type AskOutput struct {
	Answer  string       `json:"answer"`
	Sources []rag.Source `json:"sources"`
}

// New builds an MCP server with the ask_portfolio tool backed by queryService.
func New(queryService service.QueryService, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: "Answer a question about the portfolio owner using the indexed documents.",
	}, askHandler(queryService))

	return server
}

// Serve runs the server over stdin/stdout until ctx is cancelled or the client disconnects.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func askHandler(queryService service.QueryService) func(context.Context, *mcp.CallToolRequest, AskInput) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
		logger := contextutil.LoggerFromContext(ctx).With("tool", ToolName)
		ctx = contextutil.WithLogger(ctx, logger)

		resp, err := queryService.Query(ctx, service.QueryRequest{Message: in.Message, TopK: in.TopK})
		if err != nil {
			logger.WarnContext(ctx, "tool call failed", "error", err)
			return nil, AskOutput{}, fmt.Errorf("ask_portfolio: %w", err)
		}

		out := AskOutput{Answer: resp.Answer, Sources: resp.Sources}
		if out.Sources == nil {
			out.Sources = []rag.Source{}
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: renderText(out)}},
		}, out, nil
	}
}

// renderText formats the answer for clients that only read text content.
func renderText(out AskOutput) string {
	if len(out.Sources) == 0 {
		return out.Answer
	}
	var b strings.Builder
	b.WriteString(out.Answer)
	b.WriteString("\n\nSources:")
	for _, s := range out.Sources {
		fmt.Fprintf(&b, "\n- %s (%.4f)", s.SourceName, s.Score)
	}
	return b.String()
}
