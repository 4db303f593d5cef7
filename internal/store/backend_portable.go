package store

import (
	_ "modernc.org/sqlite"
)

// portableBackend drives the pure-Go SQLite engine. It works everywhere the
// Go toolchain does, at the cost of named-bind translation and a reduced
// pragma set.
type portableBackend struct{}

// NewPortableBackend returns the pure-Go SQLite backend.
func NewPortableBackend() Backend {
	return portableBackend{}
}

func (portableBackend) Name() string { return "portable" }

func (portableBackend) DriverName() string { return "sqlite" }

func (portableBackend) DSN(path string) string { return path }

func (portableBackend) Rewrite(query string) string {
	return translateNamed(query)
}

func (portableBackend) RewriteArgs(query string, args map[string]any) []any {
	names := namedBindOrder(query)
	out := make([]any, len(names))
	for i, name := range names {
		out[i] = args[name]
	}
	return out
}

func (portableBackend) Pragmas() []string {
	// The portable engine rejects mmap_size and friends; only the base set
	// applies.
	return basePragmas
}
