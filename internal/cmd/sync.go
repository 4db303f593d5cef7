package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/index"
	"github.com/ravescovi/codegraph/internal/syncer"
)

// msRound keeps durations readable in command output.
const msRound = time.Millisecond

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the graph with the current filesystem",
	Long: `Sync detects added, modified, and removed files (via git status when
available, otherwise a full rescan), re-indexes what changed, and removes
stale subgraphs.

Examples:
  codegraph sync            # apply changes
  codegraph sync --dry-run  # only report what would change`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report changes without applying them")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	p, err := openProject(false)
	if err != nil {
		return err
	}
	defer p.close()

	ix := index.New(p.store, p.registry, p.root, p.cfg)
	s := syncer.New(p.store, ix, p.root, p.cfg)

	if syncDryRun {
		changes, err := s.GetChangedFiles(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(changes)
	}

	res, err := s.Sync(cmd.Context())
	if err != nil {
		return err
	}

	if res.FilesAdded+res.FilesModified+res.FilesRemoved == 0 {
		fmt.Println("up to date")
		return nil
	}
	color.Green("synced: +%d ~%d -%d (%d nodes) in %s",
		res.FilesAdded, res.FilesModified, res.FilesRemoved, res.NodesUpdated, res.Duration.Round(msRound))
	return nil
}
