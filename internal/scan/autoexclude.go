package scan

import (
	"os"
	"path/filepath"
)

// dependencyMarkers maps a project marker file to the sibling directory it
// implies is build output or vendored dependencies. Detection is file
// existence only, no guessing.
var dependencyMarkers = map[string]string{
	"Cargo.toml":    "target",
	"package.json":  "node_modules",
	"composer.json": "vendor",
	"go.mod":        "vendor",
	"pyvenv.cfg":    ".",
}

// AutoExcludes finds dependency directories under root that should not be
// indexed: Rust target/, node_modules/, PHP and Go vendor/, and Python
// virtual environments. Returned paths are root-relative glob patterns
// ready for the exclude list.
func AutoExcludes(root string) []string {
	var patterns []string
	seen := make(map[string]bool)

	add := func(rel string) {
		rel = filepath.ToSlash(rel)
		if !seen[rel] {
			seen[rel] = true
			patterns = append(patterns, rel+"/**")
		}
	}

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			// Never descend into directories that are dependency trees by
			// name alone; the marker check already excluded them.
			switch d.Name() {
			case "node_modules", "target", "vendor", ".git":
				return filepath.SkipDir
			}
			return nil
		}

		dir, ok := dependencyMarkers[d.Name()]
		if !ok {
			return nil
		}
		parent := filepath.Dir(rel)
		if parent == "." {
			parent = ""
		}

		if dir == "." {
			// pyvenv.cfg marks its own directory as a virtualenv.
			if parent != "" {
				add(parent)
			}
			return nil
		}

		candidate := filepath.Join(parent, dir)
		if info, statErr := os.Stat(filepath.Join(root, candidate)); statErr == nil && info.IsDir() {
			add(candidate)
		}
		return nil
	})

	return patterns
}
