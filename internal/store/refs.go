package store

import "fmt"

const refColumns = `from_node_id, reference_name, reference_kind, line, "column", file_path, language`

const insertRefSQL = `
	INSERT INTO unresolved_refs (` + refColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// InsertUnresolvedRefs batch-inserts pending references inside the
// transaction.
func (t *Tx) InsertUnresolvedRefs(refs []*UnresolvedRef) error {
	if len(refs) == 0 {
		return nil
	}
	stmt, err := t.tx.Prepare(t.backend.Rewrite(insertRefSQL))
	if err != nil {
		return &DatabaseError{Op: "prepare insert refs", Err: err}
	}
	defer stmt.Close()

	for _, r := range refs {
		_, err := stmt.Exec(
			r.FromNodeID, r.ReferenceName, string(r.ReferenceKind),
			r.Line, r.Column, r.FilePath, r.Language,
		)
		if err != nil {
			return &DatabaseError{Op: fmt.Sprintf("insert ref %s -> %s", r.FromNodeID, r.ReferenceName), Err: err}
		}
	}
	return nil
}

// InsertUnresolvedRefs batch-inserts pending references in their own
// transaction.
func (s *Store) InsertUnresolvedRefs(refs []*UnresolvedRef) error {
	return s.Transaction(func(tx *Tx) error {
		return tx.InsertUnresolvedRefs(refs)
	})
}

// GetUnresolvedRefsByFile returns the pending references recorded for one
// file.
func (s *Store) GetUnresolvedRefsByFile(path string) ([]*UnresolvedRef, error) {
	return s.queryRefs(`SELECT `+refColumns+` FROM unresolved_refs WHERE file_path = ? ORDER BY line, column`, path)
}

// GetUnresolvedRefsByName returns pending references matching a target
// name, across all files. The resolution pass uses this to re-link callers
// after their callee's file was re-indexed.
func (s *Store) GetUnresolvedRefsByName(name string) ([]*UnresolvedRef, error) {
	return s.queryRefs(`SELECT `+refColumns+` FROM unresolved_refs WHERE reference_name = ? ORDER BY file_path, line`, name)
}

// GetAllUnresolvedRefs returns every pending reference.
func (s *Store) GetAllUnresolvedRefs() ([]*UnresolvedRef, error) {
	return s.queryRefs(`SELECT ` + refColumns + ` FROM unresolved_refs ORDER BY file_path, line, column`)
}

func (s *Store) queryRefs(query string, args ...any) ([]*UnresolvedRef, error) {
	rows, err := s.db.Query(s.backend.Rewrite(query), args...)
	if err != nil {
		return nil, &DatabaseError{Op: "query refs", Err: err}
	}
	defer rows.Close()

	var refs []*UnresolvedRef
	for rows.Next() {
		var r UnresolvedRef
		var kind string
		err := rows.Scan(&r.FromNodeID, &r.ReferenceName, &kind, &r.Line, &r.Column, &r.FilePath, &r.Language)
		if err != nil {
			return nil, &DatabaseError{Op: "scan ref", Err: err}
		}
		r.ReferenceKind = EdgeKind(kind)
		refs = append(refs, &r)
	}
	return refs, rows.Err()
}
