package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/index"
	"github.com/ravescovi/codegraph/internal/scan"
)

var (
	indexFiles         []string
	indexNoAutoExclude bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the full code graph for the project",
	Long: `Index scans the project, extracts entities and relationships from every
supported source file, and stores the graph. Unchanged files (by content
hash) are skipped, so re-running is cheap.

Examples:
  codegraph index                     # index everything
  codegraph index --file src/auth.go  # restrict to specific files`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringSliceVar(&indexFiles, "file", nil, "Restrict indexing to these paths (repeatable)")
	indexCmd.Flags().BoolVar(&indexNoAutoExclude, "no-auto-exclude", false, "Do not auto-exclude dependency directories (target/, node_modules/, vendor/)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	p, err := openProject(false)
	if err != nil {
		return err
	}
	defer p.close()

	if !indexNoAutoExclude {
		p.cfg.Exclude = append(p.cfg.Exclude, scan.AutoExcludes(p.root)...)
	}
	ix := index.New(p.store, p.registry, p.root, p.cfg)

	var bar *progressbar.ProgressBar
	progress := func(phase string, current, total int, file string) {
		if !isatty.IsTerminal(os.Stderr.Fd()) {
			return
		}
		if bar == nil && total > 0 {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionClearOnFinish(),
			)
		}
		if bar != nil && phase == index.PhaseParsing {
			bar.Set(current)
		}
	}

	var res *index.Result
	if len(indexFiles) > 0 {
		res, err = ix.IndexFiles(cmd.Context(), indexFiles, progress)
	} else {
		res, err = ix.IndexAll(cmd.Context(), progress)
	}
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	for _, e := range res.Errors {
		color.Yellow("warning: %v", e)
	}

	fmt.Printf("indexed %d files (%d skipped, %d nodes, %d edges) in %s\n",
		res.FilesIndexed, res.FilesSkipped, res.NodesCreated, res.EdgesCreated, res.Duration.Round(msRound))
	if !res.Success {
		fmt.Println("indexing was interrupted; committed work is kept")
	}
	return nil
}
