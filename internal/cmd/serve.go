package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/contextual"
	"github.com/ravescovi/codegraph/internal/embeddings"
	"github.com/ravescovi/codegraph/internal/mcp"
	"github.com/ravescovi/codegraph/internal/query"
)

var serveSemantic bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graph to AI agents over MCP (stdio)",
	Long: `Serve speaks the Model Context Protocol on standard I/O: line-delimited
JSON-RPC 2.0. Tools map one-to-one onto the query engine and context
builder: graph_search, graph_callers, graph_callees, graph_impact,
graph_paths, graph_context, graph_status.

Logs go to stderr; stdout carries only the protocol.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSemantic, "semantic", false, "Enable the embedding collaborator for graph_context")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.close()

	var embedder embeddings.Embedder
	if serveSemantic || p.cfg.EmbeddingModel != "" {
		embedder = embeddings.NewOllamaEmbedder(p.cfg.EmbeddingModel)
		defer embedder.Close()
	}

	engine := query.New(p.store)
	builder := contextual.New(engine, embedder, p.root)
	return mcp.New(p.store, engine, builder, p.root).ServeStdio()
}
