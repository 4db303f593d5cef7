// Package logging configures the process-wide logger. Components import
// logrus directly; this package only decides level and format once, from the
// CLI flags.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

// Setup configures the global logger. Verbose enables debug output; JSON
// switches to machine-readable lines (used by serve, where stdout carries
// the protocol and logs must stay on stderr).
func Setup(verbose, json bool) {
	log.SetOutput(os.Stderr)
	if json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			DisableTimestamp: true,
			ForceColors:      isatty.IsTerminal(os.Stderr.Fd()),
		})
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Silence routes all logging to a writer; tests use it to keep output
// clean.
func Silence(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	log.SetOutput(w)
}

// Component returns an entry tagged with the originating component.
func Component(name string) *log.Entry {
	return log.WithField("component", name)
}
