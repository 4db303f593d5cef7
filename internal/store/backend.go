package store

import (
	"strings"
	"unicode"
)

// Backend abstracts over the two embedded SQLite engines: the native cgo
// driver and the portable pure-Go driver. The portable engine needs named
// binds translated to positional ones and rejects a few pragmas; both of
// those are load-bearing, skipping them leaks file locks or fails at prepare
// time.
type Backend interface {
	// Name identifies the backend ("native" or "portable").
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN builds the connection string for a database file path.
	DSN(path string) string
	// Rewrite adapts a query for the engine. For the portable engine this
	// translates :name binds to positional ?.
	Rewrite(query string) string
	// RewriteArgs reorders named argument values to match Rewrite's
	// positional output. Positional queries pass through untouched.
	RewriteArgs(query string, args map[string]any) []any
	// Pragmas returns the pragmas to apply at open, already filtered to the
	// ones the engine accepts.
	Pragmas() []string
}

// basePragmas are the pragmas every backend wants. foreign_keys drives the
// delete cascades the data model relies on.
var basePragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// nativeOnlyPragmas are accepted by the cgo engine but not the portable one.
var nativeOnlyPragmas = []string{
	"PRAGMA mmap_size = 268435456",
}

// namedBindOrder extracts :name parameters from a query in occurrence
// order. It ignores text inside single-quoted string literals and leaves
// double colons (::) alone; SQL comments are not recognized and are scanned
// like any other text.
func namedBindOrder(query string) []string {
	var names []string
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if c == ':' && i+1 < len(query) {
			if i > 0 && query[i-1] == ':' {
				continue
			}
			if query[i+1] == ':' {
				i++
				continue
			}
			j := i + 1
			for j < len(query) && (query[j] == '_' || unicode.IsLetter(rune(query[j])) || unicode.IsDigit(rune(query[j]))) {
				j++
			}
			if j > i+1 {
				names = append(names, query[i+1:j])
				i = j - 1
			}
		}
	}
	return names
}

// translateNamed rewrites :name binds to ? in occurrence order, with the
// same literal handling as namedBindOrder.
func translateNamed(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			inString = !inString
			b.WriteByte(c)
			continue
		}
		if !inString && c == ':' && i+1 < len(query) {
			if query[i+1] == ':' {
				b.WriteString("::")
				i++
				continue
			}
			j := i + 1
			for j < len(query) && (query[j] == '_' || unicode.IsLetter(rune(query[j])) || unicode.IsDigit(rune(query[j]))) {
				j++
			}
			if j > i+1 {
				b.WriteByte('?')
				i = j - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
