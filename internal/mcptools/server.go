package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCurationMCPServer creates an MCP server with the curation tools registered.
func NewCurationMCPServer(svc *CurationService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "curate",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "diff_document",
		Description: "Compare every annotator's annotations of a document. Returns agreement counts and the positions where annotators disagree or are missing, with the annotators behind each value.",
	}, svc.DiffDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge_document",
		Description: "Merge the annotators of a document into one curated collection using the project strategy or an override. Returns accepted, disputed and rejected position counts.",
	}, svc.MergeDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agreement_status",
		Description: "Report per-type agreement counts for one document or every stored document, and whether a curated collection has been saved.",
	}, svc.AgreementStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_disputes",
		Description: "List disputed positions recorded in the agreement graph by earlier merges, with each competing value and the annotators who voted for it.",
	}, svc.ListDisputes)

	return server
}

// RunMCPServer starts an HTTP server exposing the curation MCP tools.
func RunMCPServer(ctx context.Context, svc *CurationService, addr string) error {
	server := NewCurationMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio serves the curation MCP tools over stdin/stdout until
// the client disconnects or ctx is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *CurationService) error {
	return NewCurationMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
