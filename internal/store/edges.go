package store

import (
	"database/sql"
	"fmt"
	"strings"
)

const edgeColumns = `source_id, target_id, kind, resolved, target_name, line_number, metadata`

const insertEdgeSQL = `
	INSERT OR IGNORE INTO edges (` + edgeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// InsertEdges batch-inserts edges inside the transaction. Duplicate edges
// under (source_id, target_id, kind, line_number) are ignored.
func (t *Tx) InsertEdges(edges []*Edge) error {
	if len(edges) == 0 {
		return nil
	}
	stmt, err := t.tx.Prepare(t.backend.Rewrite(insertEdgeSQL))
	if err != nil {
		return &DatabaseError{Op: "prepare insert edges", Err: err}
	}
	defer stmt.Close()

	for _, e := range edges {
		_, err := stmt.Exec(
			e.SourceID, e.TargetID, string(e.Kind), boolInt(e.Resolved),
			e.TargetName, e.LineNumber, e.Metadata,
		)
		if err != nil {
			return &DatabaseError{Op: fmt.Sprintf("insert edge %s -%s-> %s", e.SourceID, e.Kind, e.TargetID), Err: err}
		}
	}
	return nil
}

// InsertEdges batch-inserts edges in their own transaction.
func (s *Store) InsertEdges(edges []*Edge) error {
	return s.Transaction(func(tx *Tx) error {
		return tx.InsertEdges(edges)
	})
}

// GetEdgesFrom returns all outbound edges of a node.
func (s *Store) GetEdgesFrom(id string) ([]*Edge, error) {
	return s.queryEdges(`SELECT `+edgeColumns+` FROM edges WHERE source_id = ? ORDER BY kind, target_id, line_number`, id)
}

// GetEdgesTo returns all inbound edges of a node.
func (s *Store) GetEdgesTo(id string) ([]*Edge, error) {
	return s.queryEdges(`SELECT `+edgeColumns+` FROM edges WHERE target_id = ? ORDER BY kind, source_id, line_number`, id)
}

// GetEdgesBetween returns every edge whose source and target are both in
// ids.
func (s *Store) GetEdgesBetween(ids []string) ([]*Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, id)
	}
	for _, id := range ids {
		args = append(args, id)
	}
	return s.queryEdges(
		`SELECT `+edgeColumns+` FROM edges
		WHERE source_id IN (`+placeholders+`) AND target_id IN (`+placeholders+`)
		ORDER BY source_id, kind, target_id`, args...)
}

// GetAllEdges returns every edge, ordered for determinism.
func (s *Store) GetAllEdges() ([]*Edge, error) {
	return s.queryEdges(`SELECT ` + edgeColumns + ` FROM edges ORDER BY source_id, kind, target_id, line_number`)
}

// DeleteDanglingResolvedEdges removes resolved edges whose target node no
// longer exists, restoring the invariant that resolved edges always point
// at a live node. Unresolved edges are allowed to dangle and stay.
func (s *Store) DeleteDanglingResolvedEdges() (int, error) {
	res, err := s.db.Exec(`
		DELETE FROM edges
		WHERE resolved = 1 AND target_id != ''
		AND target_id NOT IN (SELECT id FROM nodes)`)
	if err != nil {
		return 0, &DatabaseError{Op: "delete dangling edges", Err: err}
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountEdges returns the number of edges in the graph.
func (s *Store) CountEdges() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&n); err != nil {
		return 0, &DatabaseError{Op: "count edges", Err: err}
	}
	return n, nil
}

func (s *Store) queryEdges(query string, args ...any) ([]*Edge, error) {
	rows, err := s.db.Query(s.backend.Rewrite(query), args...)
	if err != nil {
		return nil, &DatabaseError{Op: "query edges", Err: err}
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		var e Edge
		var kind string
		var resolved int
		var targetName, metadata sql.NullString
		err := rows.Scan(&e.SourceID, &e.TargetID, &kind, &resolved, &targetName, &e.LineNumber, &metadata)
		if err != nil {
			return nil, &DatabaseError{Op: "scan edge", Err: err}
		}
		e.Kind = EdgeKind(kind)
		e.Resolved = resolved != 0
		e.TargetName = targetName.String
		e.Metadata = metadata.String
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}
