package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/query"
	"github.com/ravescovi/codegraph/internal/store"
)

var (
	searchLimit int
	searchKind  string
	searchLang  string
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search entities by name or keywords",
	Long: `Search ranks entities against free text: exact and prefix name matches
first, camel/snake sub-token matches after, with callables boosted over
files and parameters.

Examples:
  codegraph search generate_token
  codegraph search "token" --kind function --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "Restrict to one node kind (function, class, ...)")
	searchCmd.Flags().StringVar(&searchLang, "lang", "", "Restrict to one language")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.close()

	opts := query.SearchOptions{Limit: searchLimit, Language: searchLang}
	if searchKind != "" {
		opts.Kinds = []store.NodeKind{store.NodeKind(searchKind)}
	}

	results, err := query.New(p.store).Search(strings.Join(args, " "), opts)
	if err != nil {
		return err
	}

	if outputFormat != "text" {
		return printResult(results)
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%6.1f  %-40s %-10s %s:%d\n",
			r.Score, r.Node.QualifiedName, r.Node.Kind, r.Node.FilePath, r.Node.StartLine)
	}
	return nil
}
