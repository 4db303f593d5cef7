package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/query"
	"github.com/ravescovi/codegraph/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query <callers|callees|deps|dependents> <target>",
	Short: "Direct-edge queries by node id or name",
	Long: `Query answers direct-edge questions about one entity. The target may be
a node id, a qualified name (src/auth.go::AuthService::login), or a bare
name.

Examples:
  codegraph query callers generate_token
  codegraph query callees src/auth.go::AuthService::login
  codegraph query dependents method:a1b2c3d4e5f67890`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	op, target := args[0], args[1]

	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.close()

	engine := query.New(p.store)
	node, err := resolveTarget(p.store, target)
	if err != nil {
		return err
	}

	var nodes []*store.Node
	switch op {
	case "callers":
		nodes, err = engine.Callers(node.ID)
	case "callees":
		nodes, err = engine.Callees(node.ID)
	case "deps", "dependencies":
		nodes, err = engine.Dependencies(node.ID)
	case "dependents":
		nodes, err = engine.Dependents(node.ID)
	default:
		return fmt.Errorf("unknown query %q (want callers, callees, deps, or dependents)", op)
	}
	if err != nil {
		return err
	}

	if outputFormat == "text" {
		if len(nodes) == 0 {
			fmt.Println("none")
			return nil
		}
		for _, n := range nodes {
			fmt.Printf("%-40s %-10s %s:%d\n", n.QualifiedName, n.Kind, n.FilePath, n.StartLine)
		}
		return nil
	}
	return printResult(nodes)
}

// resolveTarget accepts a node id, qualified name, or bare name, preferring
// the most specific interpretation.
func resolveTarget(s *store.Store, target string) (*store.Node, error) {
	if n, err := s.GetNode(target); err != nil {
		return nil, err
	} else if n != nil {
		return n, nil
	}
	if n, err := s.GetNodeByQualifiedName(target); err != nil {
		return nil, err
	} else if n != nil {
		return n, nil
	}
	nodes, err := s.GetNodesByName(target)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no entity named %q", target)
	}
	if len(nodes) > 1 {
		fmt.Printf("note: %d entities named %q, using %s\n", len(nodes), target, nodes[0].QualifiedName)
	}
	return nodes[0], nil
}
