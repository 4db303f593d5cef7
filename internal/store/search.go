package store

import (
	"fmt"
	"strings"
)

const defaultSearchLimit = 50

// SearchNodes finds nodes lexically matching a term via the FTS index, with
// a LIKE fallback for terms FTS cannot express. Results come back in match
// order; ranked scoring belongs to the query engine.
func (s *Store) SearchNodes(term string, opts SearchOptions) ([]*Node, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &SearchError{Query: term, Err: fmt.Errorf("empty search term")}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ftsQuery := buildFTSQuery(term, opts.Prefix)
	if ftsQuery != "" {
		nodes, err := s.searchFTS(ftsQuery, opts, limit)
		if err == nil {
			return nodes, nil
		}
		// Malformed FTS input degrades to the LIKE path rather than failing
		// the search.
	}
	return s.searchLike(term, opts, limit)
}

func (s *Store) searchFTS(ftsQuery string, opts SearchOptions, limit int) ([]*Node, error) {
	query := `
		SELECT ` + prefixedNodeColumns("n.") + `
		FROM nodes_fts f
		JOIN nodes n ON n.rowid = f.rowid
		WHERE f MATCH ?`
	args := []any{ftsQuery}
	query, args = appendNodeFilters(query, args, opts)
	query += ` ORDER BY f.rank, n.id LIMIT ?`
	args = append(args, limit)

	return s.queryNodes(query, args...)
}

func (s *Store) searchLike(term string, opts SearchOptions, limit int) ([]*Node, error) {
	pattern := "%" + escapeLike(term) + "%"
	query := `
		SELECT ` + prefixedNodeColumns("n.") + `
		FROM nodes n
		WHERE (n.name LIKE ? ESCAPE '\' OR n.qualified_name LIKE ? ESCAPE '\')`
	args := []any{pattern, pattern}
	query, args = appendNodeFilters(query, args, opts)
	query += ` ORDER BY length(n.name), n.id LIMIT ?`
	args = append(args, limit)

	return s.queryNodes(query, args...)
}

func appendNodeFilters(query string, args []any, opts SearchOptions) (string, []any) {
	if len(opts.Kinds) > 0 {
		placeholders := strings.Repeat("?,", len(opts.Kinds))
		query += ` AND n.kind IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, k := range opts.Kinds {
			args = append(args, string(k))
		}
	}
	if opts.Language != "" {
		query += ` AND n.language = ?`
		args = append(args, opts.Language)
	}
	return query, args
}

// buildFTSQuery turns free text into an FTS5 match expression: quoted terms
// ANDed together, with a trailing * for prefix mode. Terms without any
// alphanumeric content yield "" and route to the LIKE fallback.
func buildFTSQuery(term string, prefix bool) string {
	fields := strings.FieldsFunc(term, func(r rune) bool {
		return !isWordRune(r)
	})
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted := `"` + f + `"`
		if prefix {
			quoted += `*`
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// prefixedNodeColumns qualifies the node column list with a table alias.
func prefixedNodeColumns(alias string) string {
	cols := strings.Split(nodeColumns, ",")
	for i, c := range cols {
		cols[i] = alias + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
