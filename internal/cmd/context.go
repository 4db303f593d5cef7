package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/contextual"
	"github.com/ravescovi/codegraph/internal/embeddings"
	"github.com/ravescovi/codegraph/internal/query"
)

var (
	contextMaxNodes  int
	contextDepth     int
	contextBlocks    int
	contextSemantics bool
)

var contextCmd = &cobra.Command{
	Use:   "context <task description>",
	Short: "Assemble a task-relevant context document",
	Long: `Context searches the graph for entities relevant to a natural-language
task, expands them along significant relationships, and emits a bounded
document with code excerpts.

Examples:
  codegraph context "fix login bug"
  codegraph context "add retry to payment processing" --format json
  codegraph context "refactor token handling" --semantic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVar(&contextMaxNodes, "max-nodes", contextual.DefaultMaxNodes, "Subgraph node cap")
	contextCmd.Flags().IntVar(&contextDepth, "depth", contextual.DefaultTraversalDepth, "Traversal depth from entry points")
	contextCmd.Flags().IntVar(&contextBlocks, "code-blocks", contextual.DefaultMaxCodeBlocks, "Maximum code excerpts")
	contextCmd.Flags().BoolVar(&contextSemantics, "semantic", false, "Rerank entry points with the embedding collaborator")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.close()

	var embedder embeddings.Embedder
	if contextSemantics || p.cfg.EmbeddingModel != "" {
		embedder = embeddings.NewOllamaEmbedder(p.cfg.EmbeddingModel)
		defer embedder.Close()
	}

	builder := contextual.New(query.New(p.store), embedder, p.root)
	opts := contextual.DefaultOptions()
	opts.MaxNodes = contextMaxNodes
	opts.TraversalDepth = contextDepth
	opts.MaxCodeBlocks = contextBlocks

	result, err := builder.Build(cmd.Context(), task, opts)
	if err != nil {
		return err
	}

	if outputFormat == "json" || outputFormat == "yaml" {
		return printResult(result)
	}
	fmt.Print(result.Markdown())
	return nil
}
