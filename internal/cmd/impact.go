package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/query"
)

var (
	impactDepth    int
	impactMaxNodes int
)

var impactCmd = &cobra.Command{
	Use:   "impact <target>",
	Short: "Show what a change to the target could affect",
	Long: `Impact walks the inbound dependency edges from the target: everything
that calls, extends, implements, imports, or references it, transitively up
to --depth.

Examples:
  codegraph impact generate_token
  codegraph impact generate_token --depth 3`,
	Args: cobra.ExactArgs(1),
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().IntVar(&impactDepth, "depth", query.DefaultMaxDepth, "Traversal depth")
	impactCmd.Flags().IntVar(&impactMaxNodes, "max-nodes", query.DefaultMaxNodes, "Node cap")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.close()

	node, err := resolveTarget(p.store, args[0])
	if err != nil {
		return err
	}

	engine := query.New(p.store)
	sg, err := engine.ImpactRadius(node.ID, query.TraverseOptions{
		MaxDepth: impactDepth,
		MaxNodes: impactMaxNodes,
	})
	if err != nil {
		return err
	}

	if outputFormat != "text" {
		return printResult(sg)
	}

	fmt.Printf("impact radius of %s (%d nodes):\n", node.QualifiedName, len(sg.Nodes)-1)
	ids := make([]string, 0, len(sg.Nodes))
	for id := range sg.Nodes {
		if id != node.ID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := sg.Nodes[id]
		fmt.Printf("  %-40s %s:%d\n", n.QualifiedName, n.FilePath, n.StartLine)
	}
	if sg.Stats.Truncated {
		fmt.Println("  (truncated at node cap)")
	}
	return nil
}
