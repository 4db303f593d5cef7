package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/index"
	"github.com/ravescovi/codegraph/internal/syncer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the graph in sync with filesystem changes",
	Long: `Watch runs an incremental sync whenever files change, debounced so
editor save bursts trigger one pass. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := openProject(false)
	if err != nil {
		return err
	}
	defer p.close()

	ix := index.New(p.store, p.registry, p.root, p.cfg)
	s := syncer.New(p.store, ix, p.root, p.cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("watching for changes (Ctrl-C to stop)")
	err = s.Watch(ctx, func(res *syncer.Result) {
		if res.FilesAdded+res.FilesModified+res.FilesRemoved > 0 {
			fmt.Printf("synced: +%d ~%d -%d\n", res.FilesAdded, res.FilesModified, res.FilesRemoved)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
