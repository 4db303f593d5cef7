package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

// errNotInitialized is returned by commands that need an initialized
// project.
var errNotInitialized = errors.New("project not initialized: run 'codegraph init' first")

// project bundles everything an open command needs.
type project struct {
	root     string
	cfg      *config.Config
	store    *store.Store
	registry *parser.Registry
}

// openProject locates the project root from the working directory, loads
// its configuration, and opens the store. Readers pass readOnly to skip the
// writer lock.
func openProject(readOnly bool) (*project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root := config.FindRoot(cwd)
	if root == "" {
		return nil, errNotInitialized
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(filepath.Join(root, config.DirName), store.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, err
	}

	return &project{
		root:     root,
		cfg:      cfg,
		store:    s,
		registry: parser.NewRegistry(warnGrammar),
	}, nil
}

func (p *project) close() {
	p.registry.Close()
	p.store.Close()
}

func warnGrammar(lang parser.Language, err error) {
	fmt.Fprintf(os.Stderr, "warning: grammar for %s unavailable: %v\n", lang, err)
}

// printResult renders a value according to the global --format flag. text
// falls back to YAML, which reads well enough for humans.
func printResult(v any) error {
	switch outputFormat {
	case "json":
		return printJSON(v)
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
