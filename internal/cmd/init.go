package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create the .codegraph layout for a project",
	Long: `Init creates the hidden project directory holding the graph database,
a default JSON configuration, and a local ignore file so the database never
gets committed. Running it twice is harmless.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", abs)
	}

	if err := config.InitLayout(abs); err != nil {
		return err
	}

	color.Green("initialized %s", filepath.Join(abs, config.DirName))
	fmt.Println("next: codegraph index")
	return nil
}
