package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the printable shape of the index state.
type statusReport struct {
	Root    string `json:"root" yaml:"root"`
	Backend string `json:"backend" yaml:"backend"`
	Files   int    `json:"files" yaml:"files"`
	Nodes   int    `json:"nodes" yaml:"nodes"`
	Edges   int    `json:"edges" yaml:"edges"`
	Schema  string `json:"schema_version" yaml:"schema_version"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.close()

	report := statusReport{Root: p.root, Backend: p.store.Backend().Name()}
	if report.Files, err = p.store.CountFiles(); err != nil {
		return err
	}
	if report.Nodes, err = p.store.CountNodes(); err != nil {
		return err
	}
	if report.Edges, err = p.store.CountEdges(); err != nil {
		return err
	}
	if report.Schema, err = p.store.GetMeta("schema_version"); err != nil {
		return err
	}
	return printResult(report)
}
