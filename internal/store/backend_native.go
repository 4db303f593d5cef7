//go:build cgo

package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// nativeBackend drives the cgo SQLite engine. Named binds and the full
// pragma set are supported as-is.
type nativeBackend struct{}

// NewNativeBackend returns the cgo SQLite backend.
func NewNativeBackend() Backend {
	return nativeBackend{}
}

func (nativeBackend) Name() string { return "native" }

func (nativeBackend) DriverName() string { return "sqlite3" }

func (nativeBackend) DSN(path string) string {
	return "file:" + path + "?_fk=1"
}

func (nativeBackend) Rewrite(query string) string { return query }

func (nativeBackend) RewriteArgs(query string, args map[string]any) []any {
	names := namedBindOrder(query)
	out := make([]any, 0, len(names))
	for _, name := range names {
		out = append(out, sql.Named(name, args[name]))
	}
	return out
}

func (nativeBackend) Pragmas() []string {
	return append(append([]string{}, basePragmas...), nativeOnlyPragmas...)
}

// DefaultBackend picks the native engine when built with cgo.
func DefaultBackend() Backend {
	return NewNativeBackend()
}
