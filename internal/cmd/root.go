// Package cmd contains all CLI commands for codegraph.
package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/logging"
	"github.com/ravescovi/codegraph/internal/store"
)

// Version is the current version of codegraph.
var Version = "0.1.0"

// Exit codes.
const (
	exitOK       = 0
	exitInternal = 1
	exitConfig   = 2
	exitLockHeld = 3
)

// Global flags.
var (
	verbose      bool
	outputFormat string
	metricsAddr  string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "Local-first code knowledge graph engine",
	Long: `codegraph builds and maintains a queryable graph of code entities
(files, classes, functions, methods) and their relationships (contains,
calls, extends, implements, imports) for a project directory.

The graph lives in an embedded database under .codegraph/ and stays in sync
with the filesystem through content hashing. AI coding assistants query it
over MCP (codegraph serve); developers use the query commands directly.

Typical session:
  codegraph init              # create .codegraph/ layout
  codegraph index             # full index
  codegraph sync              # incremental update
  codegraph query callers generate_token
  codegraph impact src/auth.go::AuthService::login
  codegraph context "fix login bug"
  codegraph serve             # MCP server on stdio`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, cmd.Name() == "serve")
		if metricsAddr != "" {
			go serveMetrics(metricsAddr)
		}
	},
}

// Execute runs the CLI, mapping error types to exit codes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var lockErr *store.LockHeldError
	if errors.As(err, &lockErr) {
		return exitLockHeld
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	if errors.Is(err, errNotInitialized) {
		return exitConfig
	}
	return exitInternal
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Warn("metrics endpoint failed")
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format: text | json | yaml")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}
