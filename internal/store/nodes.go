package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const nodeColumns = `id, kind, name, qualified_name, file_path, language,
	start_line, end_line, start_column, end_column,
	signature, docstring, code_snippet, code_hash, metadata,
	visibility, is_exported, is_async, is_static, updated_at`

const insertNodeSQL = `
	INSERT INTO nodes (` + nodeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertNodes batch-inserts nodes inside the transaction.
func (t *Tx) InsertNodes(nodes []*Node) error {
	if len(nodes) == 0 {
		return nil
	}
	stmt, err := t.tx.Prepare(t.backend.Rewrite(insertNodeSQL))
	if err != nil {
		return &DatabaseError{Op: "prepare insert nodes", Err: err}
	}
	defer stmt.Close()

	for _, n := range nodes {
		updatedAt := n.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now()
		}
		_, err := stmt.Exec(
			n.ID, string(n.Kind), n.Name, n.QualifiedName, n.FilePath, n.Language,
			n.StartLine, n.EndLine, n.StartColumn, n.EndColumn,
			n.Signature, n.Docstring, n.CodeSnippet, n.CodeHash, n.Metadata,
			n.Visibility, boolInt(n.IsExported), boolInt(n.IsAsync), boolInt(n.IsStatic),
			timeString(updatedAt),
		)
		if err != nil {
			return &DatabaseError{Op: fmt.Sprintf("insert node %s", n.ID), Err: err}
		}
	}
	return nil
}

// InsertNodes batch-inserts nodes in their own transaction.
func (s *Store) InsertNodes(nodes []*Node) error {
	return s.Transaction(func(tx *Tx) error {
		return tx.InsertNodes(nodes)
	})
}

// GetNode fetches one node by id; missing nodes return (nil, nil).
func (s *Store) GetNode(id string) (*Node, error) {
	row := s.db.QueryRow(s.backend.Rewrite(
		`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`), id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &DatabaseError{Op: "get node", Err: err}
	}
	return n, nil
}

// GetNodeByQualifiedName fetches the first node matching a qualified name.
func (s *Store) GetNodeByQualifiedName(qn string) (*Node, error) {
	row := s.db.QueryRow(s.backend.Rewrite(
		`SELECT `+nodeColumns+` FROM nodes WHERE qualified_name = ? ORDER BY id LIMIT 1`), qn)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &DatabaseError{Op: "get node by qualified name", Err: err}
	}
	return n, nil
}

// GetNodesByKind returns all nodes of one kind, ordered by id for
// determinism.
func (s *Store) GetNodesByKind(kind NodeKind) ([]*Node, error) {
	return s.queryNodes(`SELECT `+nodeColumns+` FROM nodes WHERE kind = ? ORDER BY id`, string(kind))
}

// GetNodesByFile returns all nodes belonging to a file.
func (s *Store) GetNodesByFile(path string) ([]*Node, error) {
	return s.queryNodes(`SELECT `+nodeColumns+` FROM nodes WHERE file_path = ? ORDER BY start_line, id`, path)
}

// GetNodesByName returns all nodes with an exact name, ordered by id.
func (s *Store) GetNodesByName(name string) ([]*Node, error) {
	return s.queryNodes(`SELECT `+nodeColumns+` FROM nodes WHERE name = ? ORDER BY id`, name)
}

// GetNodesByIDs fetches nodes for a set of ids. Missing ids are silently
// absent from the result.
func (s *Store) GetNodesByIDs(ids []string) ([]*Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryNodes(
		`SELECT `+nodeColumns+` FROM nodes WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
}

// CountNodes returns the number of nodes in the graph.
func (s *Store) CountNodes() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, &DatabaseError{Op: "count nodes", Err: err}
	}
	return n, nil
}

func (s *Store) queryNodes(query string, args ...any) ([]*Node, error) {
	rows, err := s.db.Query(s.backend.Rewrite(query), args...)
	if err != nil {
		return nil, &DatabaseError{Op: "query nodes", Err: err}
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, &DatabaseError{Op: "scan node", Err: err}
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func scanNode(row rowScanner) (*Node, error) {
	var n Node
	var kind, updatedAt string
	var signature, docstring, snippet, codeHash, metadata, visibility sql.NullString
	var exported, async, static int
	err := row.Scan(
		&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.Language,
		&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
		&signature, &docstring, &snippet, &codeHash, &metadata,
		&visibility, &exported, &async, &static, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Kind = NodeKind(kind)
	n.Signature = signature.String
	n.Docstring = docstring.String
	n.CodeSnippet = snippet.String
	n.CodeHash = codeHash.String
	n.Metadata = metadata.String
	n.Visibility = visibility.String
	n.IsExported = exported != 0
	n.IsAsync = async != 0
	n.IsStatic = static != 0
	n.UpdatedAt = parseTime(updatedAt)
	return &n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
